// Package rustsrc builds a definition graph from Rust sources with
// tree-sitter. Only items declared plainly `pub` are recorded, and
// out-of-line modules (`pub mod foo;`) are followed to foo.rs or
// foo/mod.rs.
package rustsrc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"git.home.luguber.info/inful/doxidize/internal/defs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

var rustLanguage = sitter.NewLanguage(tree_sitter_rust.Language())

// Crate is the result of parsing a crate.
type Crate struct {
	Name  string
	Root  defs.ID
	Index *defs.Index
	// Files lists every source file that was parsed.
	Files []string
}

type loader struct {
	parser *sitter.Parser
	ix     *defs.Index
	files  []string
}

// Load parses the crate whose root source file is srcPath.
func Load(crate, srcPath string) (*Crate, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(rustLanguage); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to initialise rust parser").Build()
	}

	l := &loader{parser: parser, ix: defs.NewIndex()}
	rootID, err := l.ix.Add(defs.Definition{Kind: defs.KindModule, QualName: crate})
	if err != nil {
		return nil, err
	}
	scope := module{id: rootID, qual: crate, dir: filepath.Dir(srcPath)}
	if err := l.parseFile(srcPath, scope); err != nil {
		return nil, err
	}
	return &Crate{Name: crate, Root: rootID, Index: l.ix, Files: l.files}, nil
}

// module is the container items are being added to.
type module struct {
	id   defs.ID
	qual string
	// dir is where `mod foo;` declarations of this module are looked up.
	dir string
}

func (l *loader) parseFile(path string, scope module) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read rust source").
			WithContext("file", path).
			Build()
	}
	l.files = append(l.files, path)

	tree := l.parser.Parse(src, nil)
	if tree == nil {
		return ferrors.MetadataError("rust parser returned no tree").
			WithContext("file", path).
			Build()
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Warn("Rust source has syntax errors, documenting what parsed", logfields.File(path))
	}
	return l.items(root, src, scope)
}

// items records the public items directly inside container.
func (l *loader) items(container *sitter.Node, src []byte, scope module) error {
	var pending []string
	for i := uint(0); i < container.NamedChildCount(); i++ {
		n := container.NamedChild(i)
		if n == nil {
			continue
		}
		switch n.Kind() {
		case "line_comment":
			text := strings.TrimRight(n.Utf8Text(src), "\r\n")
			switch {
			case strings.HasPrefix(text, "//!"):
				l.appendDocs(scope.id, strings.TrimPrefix(text, "//!"))
			case isOuterDoc(text):
				pending = append(pending, strings.TrimPrefix(text, "///"))
			}
			continue
		case "block_comment", "attribute_item", "inner_attribute_item":
			continue
		}

		docs := strings.Join(pending, "\n")
		pending = nil
		if err := l.item(n, src, scope, docs); err != nil {
			return err
		}
	}
	return nil
}

func isOuterDoc(text string) bool {
	return strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////")
}

func (l *loader) appendDocs(id defs.ID, line string) {
	d, err := l.ix.GetDef(id)
	if err != nil {
		return
	}
	if d.Docs != "" {
		d.Docs += "\n"
	}
	d.Docs += line
	l.ix.Update(d)
}

var itemKinds = map[string]defs.Kind{
	"mod_item":      defs.KindModule,
	"struct_item":   defs.KindStruct,
	"enum_item":     defs.KindEnum,
	"trait_item":    defs.KindTrait,
	"function_item": defs.KindFunction,
	"type_item":     defs.KindTypeAlias,
	"static_item":   defs.KindStatic,
	"const_item":    defs.KindConst,
}

func (l *loader) item(n *sitter.Node, src []byte, scope module, docs string) error {
	kind, ok := itemKinds[n.Kind()]
	if !ok || !isPub(n, src) {
		return nil
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(src)
	qual := scope.qual + "::" + name
	body := n.ChildByFieldName("body")

	def := defs.Definition{
		Kind:      kind,
		Name:      name,
		QualName:  qual,
		Parent:    scope.id,
		HasParent: true,
		Docs:      docs,
	}
	if kind != defs.KindModule {
		def.Signature = signature(n, body, src)
	}
	id, err := l.ix.Add(def)
	if err != nil {
		return err
	}

	switch kind {
	case defs.KindModule:
		child := module{id: id, qual: qual, dir: filepath.Join(scope.dir, name)}
		if body != nil {
			return l.items(body, src, child)
		}
		return l.externalModule(child, scope.dir, name)
	case defs.KindStruct:
		if body != nil && body.Kind() == "field_declaration_list" {
			return l.members(body, src, id, qual, "field_declaration", defs.KindField, true)
		}
	case defs.KindEnum:
		if body != nil {
			return l.members(body, src, id, qual, "enum_variant", defs.KindTuple, false)
		}
	}
	return nil
}

// externalModule follows `mod name;` to name.rs or name/mod.rs.
func (l *loader) externalModule(scope module, dir, name string) error {
	for _, candidate := range []string{
		filepath.Join(dir, name+".rs"),
		filepath.Join(dir, name, "mod.rs"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return l.parseFile(candidate, scope)
		}
	}
	slog.Warn("Module source not found", logfields.Name(scope.qual), logfields.Dir(dir))
	return nil
}

// members records struct fields or enum variants. Fields need their own
// pub marker, variants inherit the enum's visibility.
func (l *loader) members(list *sitter.Node, src []byte, parent defs.ID, parentQual, nodeKind string, kind defs.Kind, needPub bool) error {
	var pending []string
	for i := uint(0); i < list.NamedChildCount(); i++ {
		n := list.NamedChild(i)
		if n == nil {
			continue
		}
		switch n.Kind() {
		case "line_comment":
			if text := strings.TrimRight(n.Utf8Text(src), "\r\n"); isOuterDoc(text) {
				pending = append(pending, strings.TrimPrefix(text, "///"))
			}
			continue
		case "attribute_item", "block_comment":
			continue
		case nodeKind:
		default:
			pending = nil
			continue
		}

		docs := strings.Join(pending, "\n")
		pending = nil
		if needPub && !isPub(n, src) {
			continue
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(src)
		if _, err := l.ix.Add(defs.Definition{
			Kind:      kind,
			Name:      name,
			QualName:  parentQual + "::" + name,
			Parent:    parent,
			HasParent: true,
			Docs:      docs,
			Signature: strings.TrimSpace(n.Utf8Text(src)),
		}); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}
	return nil
}

// isPub reports whether n carries a bare `pub` visibility modifier.
func isPub(n *sitter.Node, src []byte) bool {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c != nil && c.Kind() == "visibility_modifier" {
			return strings.TrimSpace(c.Utf8Text(src)) == "pub"
		}
	}
	return false
}

// signature is the item's text up to its body, or the whole item when it
// has none.
func signature(n, body *sitter.Node, src []byte) string {
	end := n.EndByte()
	if body != nil && body.Kind() != "ordered_field_declaration_list" {
		end = body.StartByte()
	}
	sig := strings.TrimSpace(string(src[n.StartByte():end]))
	return strings.TrimSuffix(sig, ";")
}
