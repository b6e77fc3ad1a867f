package report

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/waftester/jsenum/pkg/jsonutil"
	"github.com/waftester/jsenum/templates"
)

const builtinDir = "output"

// builtinExt maps built-in template names to the extension of the file
// they render to.
var builtinExt = map[string]string{
	"summary":  ".txt",
	"markdown": ".md",
}

// Templates returns the names of the built-in templates, sorted.
func Templates() []string {
	entries, err := fs.ReadDir(templates.FS, builtinDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".tmpl"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ParseTemplate loads a built-in template by name, or a template file
// when nameOrPath is not a built-in name. Sprig functions plus json and
// prettyJSON are available.
func ParseTemplate(nameOrPath string) (*template.Template, error) {
	src, err := templateSource(nameOrPath)
	if err != nil {
		return nil, err
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["json"] = tmplJSON
	funcMap["prettyJSON"] = tmplPrettyJSON

	tmpl, err := template.New(path.Base(nameOrPath)).Funcs(funcMap).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("report: parse template %s: %w", nameOrPath, err)
	}
	return tmpl, nil
}

func templateSource(nameOrPath string) (string, error) {
	if nameOrPath == "" {
		return "", fmt.Errorf("report: no template specified (built-ins: %s)", strings.Join(Templates(), ", "))
	}
	if data, err := templates.FS.ReadFile(path.Join(builtinDir, nameOrPath+".tmpl")); err == nil {
		return string(data), nil
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return "", fmt.Errorf("report: unknown template %q (built-ins: %s): %w",
			nameOrPath, strings.Join(Templates(), ", "), err)
	}
	return string(data), nil
}

// Render executes the named template against r.
func Render(w io.Writer, nameOrPath string, r *Report) error {
	if r == nil {
		return ErrNilReport
	}
	tmpl, err := ParseTemplate(nameOrPath)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("report: render %s: %w", nameOrPath, err)
	}
	return nil
}

// WriteTemplate renders r next to its JSON report and returns the path.
// Built-ins use their own extension; a template file foo.html.tmpl
// renders to .html, anything else to .txt.
func WriteTemplate(dir, nameOrPath string, r *Report) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}
	var buf bytes.Buffer
	if err := Render(&buf, nameOrPath, r); err != nil {
		return "", err
	}
	return writeFile(dir, siblingName(r.CreatedAt, templateExt(nameOrPath)), buf.Bytes())
}

func templateExt(nameOrPath string) string {
	if ext, ok := builtinExt[nameOrPath]; ok {
		return ext
	}
	base := strings.TrimSuffix(filepath.Base(nameOrPath), ".tmpl")
	if ext := filepath.Ext(base); ext != "" {
		return ext
	}
	return ".txt"
}

func tmplJSON(v any) string {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func tmplPrettyJSON(v any) string {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
