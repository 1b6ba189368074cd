package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/filesmanager/backend/internal/client"
)

// JSON prints v as indented JSON.
func JSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// FileTable prints files as a table, folders suffixed with "/".
func FileTable(out io.Writer, files []client.File) {
	if len(files) == 0 {
		fmt.Fprintln(out, "No files found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tPUBLIC\tID")
	for _, f := range files {
		name := f.Name
		if f.IsFolder() {
			name += "/"
		}
		public := "-"
		if f.IsPublic {
			public = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, f.Type, public, f.ID)
	}
	w.Flush()
}

func FileDetail(out io.Writer, f client.File) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", f.Name)
	fmt.Fprintf(w, "ID:\t%s\n", f.ID)
	fmt.Fprintf(w, "Type:\t%s\n", f.Type)
	fmt.Fprintf(w, "Public:\t%v\n", f.IsPublic)
	if parent := f.Parent(); parent == "0" {
		fmt.Fprintf(w, "Parent:\t(root)\n")
	} else {
		fmt.Fprintf(w, "Parent:\t%s\n", parent)
	}
	fmt.Fprintf(w, "Owner:\t%s\n", f.UserID)
	w.Flush()
}

func UserInfo(out io.Writer, u client.User) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	w.Flush()
}

// FormatSize converts bytes to a human-readable string.
func FormatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
