package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/kpi_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChainGuardPlugin enforces multi-chain isolation by automatically scoping
// queries/updates/deletes to the request's chain_id when the model has a chain_id column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must include chain_id manually.
// - Admin/internal bypass is explicit via context flags.
type ChainGuardPlugin struct{}

func NewChainGuardPlugin() *ChainGuardPlugin { return &ChainGuardPlugin{} }

func (p *ChainGuardPlugin) Name() string { return "chain_guard" }

func (p *ChainGuardPlugin) Initialize(db *gorm.DB) error {
	// Query
	if err := db.Callback().Query().Before("gorm:query").Register("chain_guard:query", chainGuardCallback); err != nil {
		return err
	}
	// Row (First/Take)
	if err := db.Callback().Row().Before("gorm:row").Register("chain_guard:row", chainGuardCallback); err != nil {
		return err
	}
	// Update
	if err := db.Callback().Update().Before("gorm:update").Register("chain_guard:update", chainGuardCallback); err != nil {
		return err
	}
	// Delete
	if err := db.Callback().Delete().Before("gorm:delete").Register("chain_guard:delete", chainGuardCallback); err != nil {
		return err
	}
	return nil
}

func chainGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassChainScope(ctx) {
		return
	}
	chainID := chainIdFromContext(ctx)
	if chainID == "" {
		return
	}

	// Only apply if the current model/table includes a chain_id column.
	if db.Statement.Schema == nil {
		return
	}
	hasChainID := false
	for _, f := range db.Statement.Schema.Fields {
		if strings.EqualFold(f.DBName, "chain_id") {
			hasChainID = true
			break
		}
	}
	if !hasChainID {
		return
	}

	// Don't duplicate an explicit chain filter.
	if whereHasChainID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "chain_id"},
				Value:  chainID,
			},
		},
	})
}

func chainIdFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(appctx.ContextKeyChainId).(string); ok && v != "" {
		return v
	}
	return ""
}

func shouldBypassChainScope(ctx context.Context) bool {
	if v, ok := ctx.Value(appctx.ContextKeySkipChainScope).(bool); ok && v {
		return true
	}
	if v, ok := ctx.Value(appctx.ContextKeyIsAdmin).(bool); ok && v {
		return true
	}
	return false
}

func whereHasChainID(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasChainID(e) {
			return true
		}
	}
	return false
}

func exprHasChainID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsChainID(v.Column)
	case clause.Neq:
		return colIsChainID(v.Column)
	case clause.Gt:
		return colIsChainID(v.Column)
	case clause.Gte:
		return colIsChainID(v.Column)
	case clause.Lt:
		return colIsChainID(v.Column)
	case clause.Lte:
		return colIsChainID(v.Column)
	case clause.IN:
		return colIsChainID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasChainID(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasChainID(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), "chain_id")
	default:
		return false
	}
}

func colIsChainID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "chain_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "chain_id")
	default:
		return false
	}
}
