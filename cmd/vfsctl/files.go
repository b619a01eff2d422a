package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yasakei/xos/internal/domain/tree"
	"github.com/yasakei/xos/internal/domain/vfs"
)

func treeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the home directory tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.client.Tree(cmd.Context())
			if err != nil {
				return err
			}
			var b strings.Builder
			printTree(&b, *root, "")
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}

func printTree(b *strings.Builder, n tree.Node, indent string) {
	name := n.Name
	if n.IsDir() {
		name += "/"
	}
	b.WriteString(indent + name + "\n")
	for _, child := range n.Children {
		printTree(b, child, indent+"  ")
	}
}

func catCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Binary() {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Content)
			return nil
		},
	}
}

func putCommand(opts *options) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "put <path> [content]",
		Short: "Write text to a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := ""
			switch {
			case from != "":
				data, err := os.ReadFile(from)
				if err != nil {
					return fmt.Errorf("read %s: %w", from, err)
				}
				content = string(data)
			case len(args) == 2:
				content = args[1]
			}
			if err := opts.client.Write(cmd.Context(), args[0], content); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "file", "f", "", "Read content from a local file")
	return cmd
}

func uploadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-file> <path>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			stored, err := opts.client.Upload(cmd.Context(), args[1], data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", stored, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

func createCommand(opts *options, use, short string) *cobra.Command {
	kind := tree.File
	if use == "mkdir" {
		kind = tree.Directory
	}
	return &cobra.Command{
		Use:   use + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client.Create(cmd.Context(), args[0], kind)
		},
	}
}

func rmCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client.Delete(cmd.Context(), args[0])
		},
	}
}

func mvCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <old-path> <new-path>",
		Short: "Rename or move an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client.Rename(cmd.Context(), args[0], args[1])
		},
	}
}

func statCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Describe an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", st.Path, st.Kind, humanize.Bytes(uint64(st.Size)), humanize.Time(st.Modified))
			return nil
		},
	}
}

func searchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <pattern>",
		Short: "Find entries matching a glob such as **/*.txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := opts.client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func duCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "du",
		Short: "Show home directory usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.client.Usage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s in %d files\n", humanize.Bytes(uint64(u.Bytes)), u.Files)
			return nil
		},
	}
}

func watchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream change events for the active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.client.Watch(cmd.Context(), func(ev vfs.Event) {
				line := fmt.Sprintf("%s %-6s %s", ev.Timestamp.Local().Format("15:04:05"), ev.Type, ev.Path)
				if ev.OldPath != "" {
					line += " (from " + ev.OldPath + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			})
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
}
