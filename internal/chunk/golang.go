package chunk

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// goUnits returns the source span of every function, method and type
// declaration, doc comment included. A parse error yields nil.
func goUnits(src string) []string {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "<memory>", src, parser.ParseComments)
	if err != nil {
		return nil
	}

	span := func(doc *ast.CommentGroup, n ast.Node) string {
		start := n.Pos()
		if doc != nil {
			start = doc.Pos()
		}
		return src[fset.Position(start).Offset:fset.Position(n.End()).Offset]
	}

	var out []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			out = append(out, span(d.Doc, d))
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				out = append(out, span(d.Doc, d))
			}
		}
	}
	return out
}
