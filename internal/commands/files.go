package commands

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filesmanager/backend/internal/client"
	"github.com/filesmanager/backend/internal/output"
	"github.com/filesmanager/backend/internal/pathutil"
	"github.com/filesmanager/backend/internal/services"
	"github.com/spf13/cobra"
)

var (
	flagParent string
	flagPage   int
	flagPublic bool
	flagType   string
	flagSize   int
	flagOut    string
)

var lsCmd = &cobra.Command{
	Use:   "ls [folder id or /path]",
	Short: "List a folder (root by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		parent := ""
		if len(args) > 0 {
			id, err := pathutil.Resolve(apiClient, args[0])
			if err != nil {
				return err
			}
			parent = id
		}
		files, err := apiClient.ListFiles(parent, flagPage)
		if err != nil {
			return fmt.Errorf("listing files: %w", err)
		}
		if flagJSON {
			output.JSON(stdout, files)
			return nil
		}
		output.FileTable(stdout, files)
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		parent, err := pathutil.Resolve(apiClient, flagParent)
		if err != nil {
			return err
		}
		file, err := apiClient.CreateFile(client.CreateFileRequest{
			Name:     args[0],
			Type:     "folder",
			ParentID: parent,
			IsPublic: flagPublic,
		})
		if err != nil {
			return fmt.Errorf("creating folder: %w", err)
		}
		return printFile(file)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a local file",
	Long: `Upload a local file. Files whose extension maps to an image content type
are stored as type "image" and get thumbnails; override with --type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		name := filepath.Base(args[0])

		typ := flagType
		if typ == "" {
			typ = "file"
			if strings.HasPrefix(services.ContentTypeFor(name), "image/") {
				typ = "image"
			}
		}

		parent, err := pathutil.Resolve(apiClient, flagParent)
		if err != nil {
			return err
		}
		file, err := apiClient.CreateFile(client.CreateFileRequest{
			Name:     name,
			Type:     typ,
			ParentID: parent,
			IsPublic: flagPublic,
			Data:     base64.StdEncoding.EncodeToString(data),
		})
		if err != nil {
			return fmt.Errorf("uploading: %w", err)
		}
		return printFile(file)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show a file's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return err
		}
		file, err := apiClient.GetFile(id)
		if err != nil {
			return fmt.Errorf("fetching file: %w", err)
		}
		return printFile(file)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Make a file readable without a token",
	Args:  cobra.ExactArgs(1),
	RunE:  setPublic(true),
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish <id>",
	Short: "Make a file private again",
	Args:  cobra.ExactArgs(1),
	RunE:  setPublic(false),
}

func setPublic(isPublic bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return err
		}
		file, err := apiClient.SetPublic(id, isPublic)
		if err != nil {
			return fmt.Errorf("updating file: %w", err)
		}
		return printFile(file)
	}
}

var catCmd = &cobra.Command{
	Use:   "cat <id>",
	Short: "Print or save a file's content",
	Long: `Print a file's content, or write it with --output. Public files can be
read without logging in. --size 100|250|500 fetches an image thumbnail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := pathutil.Resolve(apiClient, args[0])
		if err != nil {
			return err
		}
		content, err := apiClient.Data(id, flagSize)
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}
		if flagOut != "" {
			if err := os.WriteFile(flagOut, content.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", flagOut, err)
			}
			fmt.Fprintf(stdout, "Saved %s (%s, %s)\n", flagOut, output.FormatSize(int64(len(content.Data))), content.ContentType)
			return nil
		}
		_, err = stdout.Write(content.Data)
		return err
	},
}

func printFile(file *client.File) error {
	if flagJSON {
		output.JSON(stdout, file)
		return nil
	}
	output.FileDetail(stdout, *file)
	return nil
}

func init() {
	lsCmd.Flags().IntVar(&flagPage, "page", 0, "Zero-based page of 20 entries")
	for _, c := range []*cobra.Command{mkdirCmd, uploadCmd} {
		c.Flags().StringVar(&flagParent, "parent", "", "Parent folder id or /path (default: root)")
		c.Flags().BoolVar(&flagPublic, "public", false, "Create as public")
	}
	uploadCmd.Flags().StringVar(&flagType, "type", "", "Record type: file or image (default: from extension)")
	catCmd.Flags().IntVar(&flagSize, "size", 0, "Thumbnail width: 100, 250 or 500")
	catCmd.Flags().StringVarP(&flagOut, "output", "o", "", "Write to this path instead of stdout")

	rootCmd.AddCommand(lsCmd, mkdirCmd, uploadCmd, infoCmd, publishCmd, unpublishCmd, catCmd)
}
