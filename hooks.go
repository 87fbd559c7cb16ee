package c8vm

// Hook observes the interpreter around an executed instruction.
// Hooks run on the goroutine that advances the interpreter.
type Hook func(in *Interpreter)

// AddBeforeCycleHook adds a hook that runs before every instruction
func (in *Interpreter) AddBeforeCycleHook(h Hook) int {
	in.beforeCycleHooks = append(in.beforeCycleHooks, h)

	return len(in.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every instruction
func (in *Interpreter) AddAfterCycleHook(h Hook) int {
	in.afterCycleHooks = append(in.afterCycleHooks, h)

	return len(in.afterCycleHooks)
}

func (in *Interpreter) runHooks(hooks []Hook) {
	for _, h := range hooks {
		h(in)
	}
}
