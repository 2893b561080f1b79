// Command work is a terminal dashboard that hands tracker items to a small
// pool of coding agents, each working in its own git worktree.
package main

func main() {
	Execute()
}
