package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/racha/internal/auth"
	"github.com/mmynk/racha/internal/calculator"
	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/middleware"
	"github.com/mmynk/racha/pkg/api"
)

// TableService implements the Connect TableService on top of the ledger.
type TableService struct {
	manager *ledger.Manager
}

var _ api.TableServiceHandler = (*TableService)(nil)

// NewTableService creates a new TableService backed by manager.
func NewTableService(manager *ledger.Manager) *TableService {
	return &TableService{manager: manager}
}

// CreateTable creates a table, or returns the existing one with the same name.
// Tables created by an authenticated venue are stamped with its name.
func (s *TableService) CreateTable(ctx context.Context, req *connect.Request[api.CreateTableRequest]) (*connect.Response[api.CreateTableResponse], error) {
	bar := middleware.GetBar(ctx)
	slog.Info("CreateTable request received", "name", req.Msg.Name, "bar", bar)

	table, existing, err := s.manager.CreateTable(ctx, req.Msg.Name, bar)
	if err != nil {
		slog.Error("CreateTable failed", "name", req.Msg.Name, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.CreateTableResponse{Table: table, Existing: existing}), nil
}

// GetTable retrieves a table by code.
func (s *TableService) GetTable(ctx context.Context, req *connect.Request[api.GetTableRequest]) (*connect.Response[api.GetTableResponse], error) {
	slog.Info("GetTable request received", "code", req.Msg.Code)

	table, err := s.manager.GetTable(ctx, req.Msg.Code)
	if err != nil {
		slog.Error("GetTable failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.GetTableResponse{Table: table}), nil
}

// ListTables lists table summaries, optionally for one venue.
func (s *TableService) ListTables(ctx context.Context, req *connect.Request[api.ListTablesRequest]) (*connect.Response[api.ListTablesResponse], error) {
	bar := req.Msg.Bar
	if req.Msg.Mine {
		bar = middleware.GetBar(ctx)
		if bar == "" {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
		}
	}
	slog.Info("ListTables request received", "bar", bar)

	tables, err := s.manager.ListTables(ctx, bar)
	if err != nil {
		slog.Error("ListTables failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("ListTables successful", "count", len(tables))
	return connect.NewResponse(&api.ListTablesResponse{Tables: tables}), nil
}

// AddMember adds a participant to a table.
func (s *TableService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "code", req.Msg.Code, "name", req.Msg.Name)

	member, table, err := s.manager.AddMember(ctx, req.Msg.Code, req.Msg.Name, req.Msg.Cash)
	if err != nil {
		slog.Error("AddMember failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.AddMemberResponse{Member: member, Table: table}), nil
}

// SetMemberPaid records what a member reports having handed over.
func (s *TableService) SetMemberPaid(ctx context.Context, req *connect.Request[api.SetMemberPaidRequest]) (*connect.Response[api.SetMemberPaidResponse], error) {
	slog.Info("SetMemberPaid request received", "code", req.Msg.Code, "member_id", req.Msg.MemberID)

	member, table, err := s.manager.SetMemberPaid(ctx, req.Msg.Code, req.Msg.MemberID, req.Msg.Paid)
	if err != nil {
		slog.Error("SetMemberPaid failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.SetMemberPaidResponse{Member: member, Table: table}), nil
}

// AddExpense records an expense on a table.
func (s *TableService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"code", req.Msg.Code,
		"item", req.Msg.Item,
		"value", req.Msg.Value,
		"consumers_count", len(req.Msg.Consumers),
	)

	expense, table, err := s.manager.AddExpense(ctx, req.Msg.Code, ledger.ExpenseInput{
		Item:      req.Msg.Item,
		Value:     req.Msg.Value,
		PaidBy:    req.Msg.PaidBy,
		Consumers: req.Msg.Consumers,
	})
	if err != nil {
		slog.Error("AddExpense failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense added", "code", req.Msg.Code, "expense_id", expense.ID)
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expense, Table: table}), nil
}

// DeleteExpense removes an expense from a table.
func (s *TableService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "code", req.Msg.Code, "expense_id", req.Msg.ExpenseID)

	table, err := s.manager.DeleteExpense(ctx, req.Msg.Code, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("DeleteExpense failed", "code", req.Msg.Code, "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.DeleteExpenseResponse{Table: table}), nil
}

// ResetTable clears members, expenses and history.
func (s *TableService) ResetTable(ctx context.Context, req *connect.Request[api.ResetTableRequest]) (*connect.Response[api.ResetTableResponse], error) {
	slog.Info("ResetTable request received", "code", req.Msg.Code)

	table, err := s.manager.ResetTable(ctx, req.Msg.Code)
	if err != nil {
		slog.Error("ResetTable failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.ResetTableResponse{Table: table}), nil
}

// SetMode changes the display mode of a table.
func (s *TableService) SetMode(ctx context.Context, req *connect.Request[api.SetModeRequest]) (*connect.Response[api.SetModeResponse], error) {
	slog.Info("SetMode request received", "code", req.Msg.Code, "mode", req.Msg.Mode)

	table, err := s.manager.SetMode(ctx, req.Msg.Code, req.Msg.Mode)
	if err != nil {
		slog.Error("SetMode failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.SetModeResponse{Table: table}), nil
}

// CloseTable records a closure with the total and the top payer.
func (s *TableService) CloseTable(ctx context.Context, req *connect.Request[api.CloseTableRequest]) (*connect.Response[api.CloseTableResponse], error) {
	slog.Info("CloseTable request received", "code", req.Msg.Code)

	closure, table, err := s.manager.CloseTable(ctx, req.Msg.Code)
	if err != nil {
		slog.Error("CloseTable failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Table closed", "code", req.Msg.Code, "total", closure.Total, "winner", closure.Winner)
	return connect.NewResponse(&api.CloseTableResponse{Closure: closure, Table: table}), nil
}

// GetSettlement returns balances and the transfers that settle a table.
func (s *TableService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	slog.Info("GetSettlement request received", "code", req.Msg.Code)

	settlement, err := s.manager.Settlement(ctx, req.Msg.Code)
	if err != nil {
		slog.Error("GetSettlement failed", "code", req.Msg.Code, "error", err)
		return nil, connectError(err)
	}

	resp := &api.GetSettlementResponse{
		Code:      settlement.Table.Code,
		Total:     calculator.TableTotal(settlement.Table.Expenses),
		Balances:  make([]api.Balance, len(settlement.Balances)),
		Transfers: make([]api.Transfer, len(settlement.Transfers)),
	}
	for i, b := range settlement.Balances {
		resp.Balances[i] = api.Balance{
			MemberID: b.MemberID,
			Name:     b.Name,
			Paid:     b.Paid,
			Consumed: b.Consumed,
			Balance:  b.Balance,
		}
	}
	for i, t := range settlement.Transfers {
		resp.Transfers[i] = api.Transfer{
			From:     t.From,
			FromName: t.FromName,
			To:       t.To,
			ToName:   t.ToName,
			Amount:   t.Amount,
		}
	}

	slog.Info("GetSettlement successful", "code", req.Msg.Code, "transfers", len(resp.Transfers))
	return connect.NewResponse(resp), nil
}

// DeleteAllTables removes every table when the admin secret matches.
func (s *TableService) DeleteAllTables(ctx context.Context, req *connect.Request[api.DeleteAllTablesRequest]) (*connect.Response[api.DeleteAllTablesResponse], error) {
	slog.Warn("DeleteAllTables request received")

	n, err := s.manager.DeleteAllTables(ctx, req.Msg.Secret)
	if err != nil {
		slog.Error("DeleteAllTables failed", "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.DeleteAllTablesResponse{Deleted: n}), nil
}
