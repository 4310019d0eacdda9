// Package symgencli provides a generic command-line interface framework,
// adapted from cmd/cli/framework.go's Command/CommandRegistry shape:
// pluggable named commands, a registry, and a thin CLI front end that
// dispatches argv[0] to the matching command.
package symgencli

import (
	"context"
	"fmt"
)

// Command represents a single named CLI command.
type Command interface {
	// Name returns the command name.
	Name() string

	// Description returns a one-line command description.
	Description() string

	// Run executes the command with the given arguments (argv with the
	// command name itself already stripped).
	Run(ctx context.Context, args []string) error

	// Usage returns multi-line usage text.
	Usage() string
}

// CommandRegistry manages available CLI commands.
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a new command registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds a command to the registry, keyed by its Name().
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get retrieves a command by name.
func (r *CommandRegistry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns all registered command names.
func (r *CommandRegistry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}

	return names
}

// CLI is the top-level dispatcher.
type CLI struct {
	registry *CommandRegistry
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{registry: NewCommandRegistry()}
}

// RegisterCommand adds a command to the CLI.
func (c *CLI) RegisterCommand(cmd Command) {
	c.registry.Register(cmd)
}

// Run dispatches args[0] to the matching registered command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	cmd, ok := c.registry.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}

	return cmd.Run(ctx, args[1:])
}

func (c *CLI) printUsage() error {
	fmt.Println("symgen - symbolic computation-graph generator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  symgen <command> [options]")
	fmt.Println()
	fmt.Println("AVAILABLE COMMANDS:")

	for _, name := range c.registry.List() {
		cmd, _ := c.registry.Get(name)
		fmt.Printf("  %-10s %s\n", name, cmd.Description())
	}

	return nil
}
