// Package compiler lowers a syntax tree into assembly text for a stack
// discipline target: x86-64 NASM or the abstract machine run by pkg/vm.
//
// Pipeline: tree -> Collect (globals, functions) -> data section ->
// startup routine -> emitter over the whole tree inside the body routine.
package compiler
