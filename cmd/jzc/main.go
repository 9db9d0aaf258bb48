// Command jzc compiles jz source ASTs to WebAssembly text.
package main

import "github.com/jz-lang/jzc/pkg/cmd"

func main() {
	cmd.Execute()
}
