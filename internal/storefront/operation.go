package storefront

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation describes the first operation of a GraphQL document.
type Operation struct {
	Name string
	Kind ast.Operation
}

// IsMutation reports whether the operation writes server state.
func (o Operation) IsMutation() bool {
	return o.Kind == ast.Mutation
}

// ParseOperation parses document and returns its first operation.
func ParseOperation(document string) (Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: document})
	if err != nil {
		return Operation{}, err
	}
	if len(doc.Operations) == 0 {
		return Operation{}, errors.New("document has no operations")
	}
	op := doc.Operations[0]
	return Operation{Name: op.Name, Kind: op.Operation}, nil
}

// operationCache memoizes parsed operations by document hash. The set of
// documents a process sends is small and fixed.
type operationCache struct {
	ops *lru.Cache[uint64, Operation]
}

func newOperationCache() *operationCache {
	ops, _ := lru.New[uint64, Operation](256)
	return &operationCache{ops: ops}
}

// lookup never fails; unparseable documents are treated as queries.
func (c *operationCache) lookup(document string) Operation {
	h := xxhash.Sum64String(document)
	if op, ok := c.ops.Get(h); ok {
		return op
	}
	op, err := ParseOperation(document)
	if err != nil {
		op = Operation{Kind: ast.Query}
	}
	c.ops.Add(h, op)
	return op
}
