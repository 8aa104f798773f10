package container

// Module groups a set of related registrations into one reusable unit —
// a composition-root fragment that can be written once and applied to
// several builders (a root registry, a test registry, a sub-scope's local
// registry). Configure is expected only to register things, never to
// resolve them; there is no separate "boot after everything is
// registered" phase here, because ordinary lazy activation already gets
// you that for free — nothing a module registers runs until something
// resolves it, or until AutoActivate says otherwise.
type Module interface {
	Configure(b *RegistryBuilder) error
}

// ModuleFunc adapts a plain function to Module.
type ModuleFunc func(b *RegistryBuilder) error

func (f ModuleFunc) Configure(b *RegistryBuilder) error { return f(b) }

// ApplyModules runs Configure on each module against b, in order,
// stopping at the first error.
func ApplyModules(b *RegistryBuilder, modules ...Module) error {
	for _, m := range modules {
		if err := m.Configure(b); err != nil {
			return err
		}
	}
	return nil
}
