// Package api defines the RPC surface of the ledger: request and response
// messages, procedure names, and Connect handler and client constructors.
package api

import "github.com/mmynk/racha/internal/models"

type CreateTableRequest struct {
	Name string `json:"name"`
}

type CreateTableResponse struct {
	Table *models.Table `json:"table"`
	// Existing is true when a table with the same name was reused.
	Existing bool `json:"existing"`
}

type GetTableRequest struct {
	Code string `json:"code"`
}

type GetTableResponse struct {
	Table *models.Table `json:"table"`
}

type ListTablesRequest struct {
	// Bar restricts the listing to one venue.
	Bar string `json:"bar,omitempty"`
	// Mine restricts the listing to the authenticated venue.
	Mine bool `json:"mine,omitempty"`
}

type ListTablesResponse struct {
	Tables []models.TableSummary `json:"tables"`
}

type AddMemberRequest struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Cash float64 `json:"cash"`
}

type AddMemberResponse struct {
	Member *models.Member `json:"member"`
	Table  *models.Table  `json:"table"`
}

type SetMemberPaidRequest struct {
	Code     string  `json:"code"`
	MemberID string  `json:"member_id"`
	Paid     float64 `json:"paid"`
}

type SetMemberPaidResponse struct {
	Member *models.Member `json:"member"`
	Table  *models.Table  `json:"table"`
}

type AddExpenseRequest struct {
	Code   string  `json:"code"`
	Item   string  `json:"item"`
	Value  float64 `json:"value"`
	PaidBy string  `json:"paid_by"`
	// Consumers defaults to every current member when empty.
	Consumers []string `json:"consumers,omitempty"`
}

type AddExpenseResponse struct {
	Expense *models.Expense `json:"expense"`
	Table   *models.Table   `json:"table"`
}

type DeleteExpenseRequest struct {
	Code      string `json:"code"`
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct {
	Table *models.Table `json:"table"`
}

type ResetTableRequest struct {
	Code string `json:"code"`
}

type ResetTableResponse struct {
	Table *models.Table `json:"table"`
}

type SetModeRequest struct {
	Code string `json:"code"`
	Mode string `json:"mode"`
}

type SetModeResponse struct {
	Table *models.Table `json:"table"`
}

type CloseTableRequest struct {
	Code string `json:"code"`
}

type CloseTableResponse struct {
	Closure *models.ClosureRecord `json:"closure"`
	Table   *models.Table         `json:"table"`
}

type GetSettlementRequest struct {
	Code string `json:"code"`
}

// Balance is one member's position in a settlement.
type Balance struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Paid     float64 `json:"paid"`
	Consumed float64 `json:"consumed"`
	Balance  float64 `json:"balance"`
}

// Transfer is a payment that settles part of a debt.
type Transfer struct {
	From     string  `json:"from"`
	FromName string  `json:"from_name"`
	To       string  `json:"to"`
	ToName   string  `json:"to_name"`
	Amount   float64 `json:"amount"`
}

type GetSettlementResponse struct {
	Code      string     `json:"code"`
	Total     float64    `json:"total"`
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

type DeleteAllTablesRequest struct {
	Secret string `json:"secret"`
}

type DeleteAllTablesResponse struct {
	Deleted int `json:"deleted"`
}

type RegisterBarRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type RegisterBarResponse struct {
	Bar *models.Bar `json:"bar"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	// ExpiresAt is the Unix timestamp after which Token is rejected.
	ExpiresAt int64       `json:"expires_at"`
	Bar       *models.Bar `json:"bar"`
}

// TableCode reports the table a request operates on.
func (r *GetTableRequest) TableCode() string { return r.Code }
func (r *AddMemberRequest) TableCode() string { return r.Code }
func (r *SetMemberPaidRequest) TableCode() string { return r.Code }
func (r *AddExpenseRequest) TableCode() string { return r.Code }
func (r *DeleteExpenseRequest) TableCode() string { return r.Code }
func (r *ResetTableRequest) TableCode() string { return r.Code }
func (r *SetModeRequest) TableCode() string { return r.Code }
func (r *CloseTableRequest) TableCode() string { return r.Code }
func (r *GetSettlementRequest) TableCode() string { return r.Code }
