package sessions

import (
	"context"

	evbus "github.com/asaskevich/EventBus"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=mocks/navigator_mock.go github.com/jrsteele09/go-cert-console/sessions Navigator

// Navigator moves the user to another surface of the console. Termination
// hands it the login path; what "navigate" means belongs to the shell that
// hosts the console (a router, a TUI, a CLI prompt).
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) {
	f(ctx, path)
}

// BusNavigator publishes navigation requests on an event bus instead of
// calling a router directly. Subscribers of TopicNavigate receive the path.
type BusNavigator struct {
	bus evbus.Bus
}

func NewBusNavigator(bus evbus.Bus) *BusNavigator {
	return &BusNavigator{bus: bus}
}

func (n *BusNavigator) Navigate(_ context.Context, path string) {
	n.bus.Publish(TopicNavigate, path)
}
