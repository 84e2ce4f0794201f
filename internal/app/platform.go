package app

// Platform is the system abstraction initialized alongside a Context.
type Platform interface {
	Init(c *Context) error
	Deinit(c *Context)
}

type nopPlatform struct{}

func (nopPlatform) Init(*Context) error { return nil }

func (nopPlatform) Deinit(*Context) {}
