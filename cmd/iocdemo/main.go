// Command iocdemo builds a container, wires a handful of illustrative
// registrations, and prints what resolving them produces. It replaces
// what used to be an HTTP server wired by hand; there is nothing here to
// serve, only a composition root to read.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/km-arc/ioc/config"
	"github.com/km-arc/ioc/container"
	"github.com/km-arc/ioc/container/diagnostics"
)

// Greeter is the running example's one user-facing service interface.
type Greeter interface {
	Greet(name string) string
}

type englishGreeter struct{}

func (englishGreeter) Greet(name string) string { return "Hello, " + name }

type frenchGreeter struct{}

func (frenchGreeter) Greet(name string) string { return "Bonjour, " + name }

// Notifier is resolved as a collection: every registered Notifier runs.
type Notifier interface {
	Notify(event string)
}

type consoleNotifier struct{ name string }

func (n consoleNotifier) Notify(event string) {
	fmt.Printf("  [%s] %s\n", n.name, event)
}

func main() {
	cfg := config.Load()

	builder := container.NewRegistryBuilder()
	builder.UseStrictSources(cfg.StrictSources)
	builder.WithRootTag(cfg.RootTag)

	if cfg.Diagnostics {
		log, err := zap.NewProduction()
		if err != nil {
			fatal(err)
		}
		defer log.Sync()
		builder.UseDiagnostics(diagnostics.NewZapListener(log, true))
	}

	mustRegister(builder, container.RegistrationConfig{
		Services: []container.ServiceKey{container.TypedOf[Greeter]()},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return englishGreeter{}, nil
		},
		Lifetime: container.LifetimeCurrentScope,
		Sharing:  container.SharingShared,
	})

	mustRegister(builder, container.RegistrationConfig{
		Services: []container.ServiceKey{container.KeyedOf[Greeter]("fr")},
		Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
			return frenchGreeter{}, nil
		},
		Lifetime: container.LifetimeCurrentScope,
	})

	for _, name := range []string{"audit", "email", "webhook"} {
		n := name
		mustRegister(builder, container.RegistrationConfig{
			Services: []container.ServiceKey{container.TypedOf[Notifier]()},
			Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
				return consoleNotifier{name: n}, nil
			},
		})
	}

	container.AddDecorator(builder, func(g Greeter, ctx *container.ResolveRequestContext) (Greeter, error) {
		return excitedGreeter{inner: g}, nil
	})

	root, err := builder.Build()
	if err != nil {
		fatal(err)
	}
	defer root.Close()

	greeter, err := container.Resolve[Greeter](root)
	if err != nil {
		fatal(err)
	}
	color.Green("default greeter: %s", greeter.Greet("World"))
	color.Cyan("root scope tag: %v", root.Tag())

	frGreeter, err := container.ResolveKeyed[Greeter](root, "fr")
	if err != nil {
		fatal(err)
	}
	color.Green("keyed (fr) greeter: %s", frGreeter.Greet("Monde"))

	notifiers, err := container.ResolveAll[Notifier](root)
	if err != nil {
		fatal(err)
	}
	color.Yellow("notifying %d listeners:", len(notifiers))
	for _, n := range notifiers {
		n.Notify("container built")
	}

	lazy := container.ResolveLazy[Greeter](root)
	color.Cyan("lazy greeter not yet activated; activating now...")
	lazyVal, err := lazy.Value()
	if err != nil {
		fatal(err)
	}
	fmt.Println("  " + lazyVal.Greet("Lazy"))

	sub, err := root.BeginScope("override-demo", func(b *container.RegistryBuilder) {
		mustRegister(b, container.RegistrationConfig{
			Services: []container.ServiceKey{container.TypedOf[Greeter]()},
			Activator: func(ctx *container.ResolveRequestContext, _ []container.Parameter) (any, error) {
				return frenchGreeter{}, nil
			},
		})
	})
	if err != nil {
		fatal(err)
	}
	defer sub.Close()

	subGreeter, err := container.Resolve[Greeter](sub)
	if err != nil {
		fatal(err)
	}
	color.Magenta("sub-scope override greeter: %s", subGreeter.Greet("Scope"))

	rootStillEnglish, err := container.Resolve[Greeter](root)
	if err != nil {
		fatal(err)
	}
	color.Magenta("root scope unaffected: %s", rootStillEnglish.Greet("Scope"))
}

// excitedGreeter is the decorator applied to every resolution of the
// unkeyed Greeter service; the keyed "fr" Greeter is not decorated.
type excitedGreeter struct{ inner Greeter }

func (e excitedGreeter) Greet(name string) string {
	return e.inner.Greet(name) + "!"
}

func mustRegister(b *container.RegistryBuilder, cfg container.RegistrationConfig) {
	if _, err := b.Register(cfg); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	color.Red("iocdemo: %v", err)
	os.Exit(1)
}
