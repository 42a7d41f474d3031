package usage

import "github.com/kailas-cloud/nutrirag/internal/usecase/budget"

// BudgetReader provides read-only access to a token budget.
type BudgetReader interface {
	Usage() budget.Usage
}
