package ir

// Module is a compiled translation unit: the ordered set of kernel
// methods produced from one input program. Optimization passes run
// per-method (dispatched concurrently by the optimizer's thread pool); the
// Module itself holds only its name and its kernels.
type Module struct {
	Name    string
	methods []*Method
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddKernel appends a method to the module.
func (mod *Module) AddKernel(m *Method) {
	mod.methods = append(mod.methods, m)
}

// Kernels returns every method in this module, in declaration order.
func (mod *Module) Kernels() []*Method { return mod.methods }
