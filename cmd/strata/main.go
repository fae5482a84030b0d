package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/rhino1998/strata/pkg/dynstub"
	"github.com/rhino1998/strata/pkg/typegraph"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := &cli.Command{
		Name:  "strata",
		Usage: "Inspect layered type graphs and the stub shapes of their dynamic types",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "log cache and resolution activity",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "shape",
				Usage:     "Print the stub shape of a type",
				ArgsUsage: "<graph.yaml> <type>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "dump the shape structure instead of the table",
					},
					&cli.BoolFlag{
						Name:  "reverse-deps",
						Usage: "include the reverse dependencies recorded in the graph",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("must provide a type graph and a type name")
					}

					doc, sys, err := load(c, c.Args().Get(0))
					if err != nil {
						return err
					}

					t, err := lookup(sys, c.Args().Get(1))
					if err != nil {
						return err
					}

					builder := dynstub.NewBuilder(sys.Logger(), sys)

					var params *dynstub.Params
					if c.Bool("reverse-deps") {
						params = builder.ParamsForReverseDeps(t, doc.ReverseDepsFor(t.QualifiedName()))
					} else {
						params = builder.Params(t)
					}

					if c.Bool("raw") {
						cfg := spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, SortKeys: true}
						cfg.Fdump(os.Stdout, params)
					} else {
						fmt.Print(dynstub.Render(params))
					}

					return diagnostics(sys)
				},
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a method call against a type",
				ArgsUsage: "<graph.yaml> <type> <method|<init>> [arg types...]",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 3 {
						return fmt.Errorf("must provide a type graph, a type and a method name")
					}

					_, sys, err := load(c, c.Args().Get(0))
					if err != nil {
						return err
					}

					t, err := lookup(sys, c.Args().Get(1))
					if err != nil {
						return err
					}

					args, err := parseTypes(sys, c.Args().Slice()[3:])
					if err != nil {
						return err
					}

					var match *typesys.MethodMatch
					if name := c.Args().Get(2); name == "<init>" {
						match, err = sys.GetConstructor(t, typesys.Args(args...), typesys.LookupOptions{})
					} else {
						match, err = sys.GetMethod(t, name, typesys.Args(args...), typesys.LookupOptions{})
					}
					if err != nil {
						return err
					}

					if match == nil {
						return fmt.Errorf("no applicable method")
					}

					fmt.Printf("%s returns %s\n", match.Method, typeString(match.Return))
					if match.Bindings != nil && match.Bindings.Len() > 0 {
						fmt.Printf("bindings: %s\n", match.Bindings)
					}

					return diagnostics(sys)
				},
			},
			{
				Name:      "assignable",
				Usage:     "Report whether a source type is assignable to a target type",
				ArgsUsage: "<graph.yaml> <target> <source>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "argument",
						Usage: "use method argument conversion rules",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("must provide a type graph, a target and a source type")
					}

					_, sys, err := load(c, c.Args().Get(0))
					if err != nil {
						return err
					}

					ts, err := parseTypes(sys, c.Args().Slice()[1:3])
					if err != nil {
						return err
					}

					opts := typesys.AssignOptions{Semantics: typesys.Assignment}
					if c.Bool("argument") {
						opts.Semantics = typesys.Argument
					}

					fmt.Println(sys.IsAssignableFrom(ts[0], ts[1], opts))

					return diagnostics(sys)
				},
			},
			{
				Name:      "diff",
				Usage:     "Diff the stub shape of a type between two type graphs",
				ArgsUsage: "<old.yaml> <new.yaml> <type>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("must provide two type graphs and a type name")
					}

					name := c.Args().Get(2)

					var shapes []*dynstub.Params
					for _, path := range c.Args().Slice()[:2] {
						_, sys, err := load(c, path)
						if err != nil {
							return err
						}

						t, err := lookup(sys, name)
						if err != nil {
							return err
						}

						shapes = append(shapes, dynstub.NewBuilder(sys.Logger(), sys).Params(t))
					}

					diff, err := dynstub.Diff(shapes[0], shapes[1])
					if err != nil {
						return err
					}

					fmt.Print(diff)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "Build every source type's stub shape and verify stable indexing",
				ArgsUsage: "<graph.yaml>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("must provide a type graph")
					}

					_, sys, err := load(c, c.Args().First())
					if err != nil {
						return err
					}

					var sources []types.Type
					for _, t := range sys.Types() {
						if _, ok := t.(*types.Decl); ok {
							sources = append(sources, t)
						}
					}

					builder := dynstub.NewBuilder(sys.Logger(), sys)
					shapes, err := builder.BuildAll(sources)
					if err != nil {
						return err
					}

					errs := &typesys.ErrorSet{}
					for _, p := range shapes {
						if ctx.Err() != nil {
							return ctx.Err()
						}

						if p.Super == nil {
							continue
						}

						err := dynstub.CheckCompatible(p.Super, p)
						if err != nil {
							errs.Add(err)
						}
					}

					for _, err := range sys.Diagnostics().Errors() {
						errs.Add(err)
					}

					fmt.Printf("checked %d types\n", len(shapes))
					return errs.Defer(nil)
				},
			},
		},
	}

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func newLogger(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func load(c *cli.Command, path string) (*typegraph.Document, *typesys.System, error) {
	doc, err := typegraph.Load(path)
	if err != nil {
		return nil, nil, err
	}

	sys, err := typegraph.New(newLogger(c.Bool("debug")), doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load type graph: %w", err)
	}

	return doc, sys, nil
}

func lookup(sys *typesys.System, name string) (types.Type, error) {
	t, ok := sys.ResolveType(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}

	return t, nil
}

func parseTypes(sys *typesys.System, srcs []string) ([]types.Type, error) {
	ts := make([]types.Type, 0, len(srcs))
	for _, src := range srcs {
		t, err := types.ParseType(sys, nil, src)
		if err != nil {
			return nil, fmt.Errorf("invalid type %q: %w", src, err)
		}

		ts = append(ts, t)
	}

	return ts, nil
}

func typeString(t types.Type) string {
	if t == nil {
		return "void"
	}

	return t.String()
}

func diagnostics(sys *typesys.System) error {
	err := sys.Diagnostics().Err()
	if err != nil {
		return fmt.Errorf("completed with diagnostics: %w", err)
	}

	return nil
}
