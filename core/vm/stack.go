package vm

import "github.com/holiman/uint256"

const stackLimit = 1024

// Stack is the EVM operand stack: max 1024 items, 256-bit words. Values are
// stored inline to avoid per-push allocations.
type Stack struct {
	data []uint256.Int
}

// NewStack returns a new empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Push pushes a value onto the stack.
func (st *Stack) Push(val *uint256.Int) {
	st.data = append(st.data, *val)
}

// Pop removes and returns the top element.
func (st *Stack) Pop() uint256.Int {
	ret := st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return ret
}

// Peek returns a pointer to the top element without removing it.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns a pointer to the nth element from the top (0 = top).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-1-n]
}

// Swap swaps the top element with the nth element from the top.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup duplicates the nth element from the top and pushes it.
func (st *Stack) Dup(n int) {
	st.data = append(st.data, st.data[len(st.data)-n])
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Data returns the underlying stack slice (bottom to top).
func (st *Stack) Data() []uint256.Int {
	return st.data
}
