package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/racha/internal/auth"
	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/middleware"
	"github.com/mmynk/racha/internal/notify"
	"github.com/mmynk/racha/internal/storage/sqlite"
	"github.com/mmynk/racha/pkg/api"
)

const testAdminSecret = "let-me-in"

type testServer struct {
	tables   *api.TableServiceClient
	accounts *api.AccountServiceClient
	hub      *notify.Hub
	jwt      *auth.JWTManager
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "racha.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hub := notify.NewHub()
	manager := ledger.NewManager(store, hub, ledger.WithAdminSecret(testAdminSecret))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	interceptors := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))
	tablePath, tableHandler := api.NewTableServiceHandler(NewTableService(manager), interceptors)
	accountPath, accountHandler := api.NewAccountServiceHandler(
		NewAccountService(auth.NewPasswordAuthenticator(store), jwtManager, nil),
		interceptors,
	)

	mux := http.NewServeMux()
	mux.Handle(tablePath, tableHandler)
	mux.Handle(accountPath, accountHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		tables:   api.NewTableServiceClient(http.DefaultClient, server.URL),
		accounts: api.NewAccountServiceClient(http.DefaultClient, server.URL),
		hub:      hub,
		jwt:      jwtManager,
	}
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestTableService_AliceAndBob(t *testing.T) {
	ctx := context.Background()
	s := setupTestServer(t)

	created, err := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{Name: "Mesa"}))
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	code := created.Msg.Table.Code
	if created.Msg.Existing {
		t.Error("expected a new table")
	}

	sub := s.hub.Subscribe(code, 8)
	defer sub.Close()

	alice, err := s.tables.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{Code: code, Name: "Alice"}))
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	bob, err := s.tables.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{Code: code, Name: "Bob"}))
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	added, err := s.tables.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{
		Code:   code,
		Item:   "Beer",
		Value:  30,
		PaidBy: alice.Msg.Member.ID,
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if len(added.Msg.Expense.Consumers) != 2 {
		t.Errorf("expected 2 consumers, got %v", added.Msg.Expense.Consumers)
	}
	for _, m := range added.Msg.Table.Members {
		want := 15.0
		if m.ID == bob.Msg.Member.ID {
			want = -15
		}
		if m.Balance != want {
			t.Errorf("%s: expected balance %v, got %v", m.Name, want, m.Balance)
		}
	}

	settlement, err := s.tables.GetSettlement(ctx, connect.NewRequest(&api.GetSettlementRequest{Code: code}))
	if err != nil {
		t.Fatalf("GetSettlement failed: %v", err)
	}
	if settlement.Msg.Total != 30 {
		t.Errorf("expected total 30, got %v", settlement.Msg.Total)
	}
	want := api.Transfer{From: bob.Msg.Member.ID, FromName: "Bob", To: alice.Msg.Member.ID, ToName: "Alice", Amount: 15}
	if len(settlement.Msg.Transfers) != 1 || settlement.Msg.Transfers[0] != want {
		t.Errorf("expected %+v, got %+v", want, settlement.Msg.Transfers)
	}

	// Two members and one expense were broadcast.
	for i := 0; i < 3; i++ {
		select {
		case event := <-sub.Events():
			if event.Type != notify.EventUpdate {
				t.Errorf("event %d: expected %s, got %s", i, notify.EventUpdate, event.Type)
			}
		default:
			t.Fatalf("expected event %d", i)
		}
	}
}

func TestTableService_CreateTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupTestServer(t)

	first, err := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{Name: "Friday"}))
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	second, err := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{Name: "Friday"}))
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if !second.Msg.Existing {
		t.Error("expected the second call to reuse the table")
	}
	if first.Msg.Table.Code != second.Msg.Table.Code {
		t.Errorf("expected code %s, got %s", first.Msg.Table.Code, second.Msg.Table.Code)
	}
}

func TestTableService_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	s := setupTestServer(t)

	created, err := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{}))
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	code := created.Msg.Table.Code
	member, err := s.tables.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{Code: code, Name: "Ana"}))
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	_, err = s.tables.GetTable(ctx, connect.NewRequest(&api.GetTableRequest{Code: "NOPE-000000"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = s.tables.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{Code: code, ExpenseID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = s.tables.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{Code: code, Value: 0, PaidBy: member.Msg.Member.ID}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = s.tables.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{Code: code, Value: 5, PaidBy: "ghost"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = s.tables.DeleteAllTables(ctx, connect.NewRequest(&api.DeleteAllTablesRequest{Secret: "wrong"}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = s.tables.ListTables(ctx, connect.NewRequest(&api.ListTablesRequest{Mine: true}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestTableService_ModeCloseReset(t *testing.T) {
	ctx := context.Background()
	s := setupTestServer(t)

	created, _ := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{Name: "Close me"}))
	code := created.Msg.Table.Code
	ana, _ := s.tables.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{Code: code, Name: "Ana", Cash: 50}))
	s.tables.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{Code: code, Name: "Ben"}))
	s.tables.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{Code: code, Item: "Wine", Value: 24, PaidBy: ana.Msg.Member.ID}))

	mode, err := s.tables.SetMode(ctx, connect.NewRequest(&api.SetModeRequest{Code: code, Mode: "free"}))
	if err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if mode.Msg.Table.Mode != "free" {
		t.Errorf("expected free mode, got %s", mode.Msg.Table.Mode)
	}

	paid, err := s.tables.SetMemberPaid(ctx, connect.NewRequest(&api.SetMemberPaidRequest{Code: code, MemberID: ana.Msg.Member.ID, Paid: 10}))
	if err != nil {
		t.Fatalf("SetMemberPaid failed: %v", err)
	}
	if paid.Msg.Member.Paid != 10 || paid.Msg.Member.Balance != 12 {
		t.Errorf("unexpected member after SetMemberPaid: %+v", paid.Msg.Member)
	}

	closed, err := s.tables.CloseTable(ctx, connect.NewRequest(&api.CloseTableRequest{Code: code}))
	if err != nil {
		t.Fatalf("CloseTable failed: %v", err)
	}
	if closed.Msg.Closure.Total != 24 || closed.Msg.Closure.Winner != "Ana" {
		t.Errorf("unexpected closure: %+v", closed.Msg.Closure)
	}
	if len(closed.Msg.Table.History) != 1 || len(closed.Msg.Table.Expenses) != 1 {
		t.Errorf("closing must append history and keep expenses: %+v", closed.Msg.Table)
	}

	reset, err := s.tables.ResetTable(ctx, connect.NewRequest(&api.ResetTableRequest{Code: code}))
	if err != nil {
		t.Fatalf("ResetTable failed: %v", err)
	}
	table := reset.Msg.Table
	if len(table.Members) != 0 || len(table.Expenses) != 0 || len(table.History) != 0 {
		t.Errorf("expected an empty table, got %+v", table)
	}
	if table.Code != code || table.ID != created.Msg.Table.ID || table.Mode != "free" {
		t.Errorf("reset must keep id, code and mode: %+v", table)
	}
}

func TestAccountService_RegisterLoginAndOwnTables(t *testing.T) {
	ctx := context.Background()
	s := setupTestServer(t)

	registered, err := s.accounts.RegisterBar(ctx, connect.NewRequest(&api.RegisterBarRequest{
		Name:     "Moes",
		Password: "duff-beer",
		Email:    "moe@example.com",
	}))
	if err != nil {
		t.Fatalf("RegisterBar failed: %v", err)
	}
	if registered.Msg.Bar.Name != "Moes" || registered.Msg.Bar.PasswordHash != "" {
		t.Errorf("unexpected bar in response: %+v", registered.Msg.Bar)
	}

	_, err = s.accounts.RegisterBar(ctx, connect.NewRequest(&api.RegisterBarRequest{Name: "Moes", Password: "duff-beer"}))
	assertCode(t, err, connect.CodeAlreadyExists)
	_, err = s.accounts.RegisterBar(ctx, connect.NewRequest(&api.RegisterBarRequest{Name: "Kwik", Password: "short"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = s.accounts.Login(ctx, connect.NewRequest(&api.LoginRequest{Name: "Moes", Password: "wrong-pass"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	login, err := s.accounts.Login(ctx, connect.NewRequest(&api.LoginRequest{Name: "Moes", Password: "duff-beer"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := s.jwt.Validate(login.Msg.Token)
	if err != nil || claims.Bar != "Moes" {
		t.Fatalf("expected a token for Moes, got %v (%v)", claims, err)
	}

	token := login.Msg.Token
	owned, err := s.tables.CreateTable(ctx, withToken(&api.CreateTableRequest{Name: "Bar table"}, token))
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if owned.Msg.Table.Bar != "Moes" {
		t.Errorf("expected table owned by Moes, got %q", owned.Msg.Table.Bar)
	}
	if _, err := s.tables.CreateTable(ctx, connect.NewRequest(&api.CreateTableRequest{Name: "Street"})); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	mine, err := s.tables.ListTables(ctx, withToken(&api.ListTablesRequest{Mine: true}, token))
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(mine.Msg.Tables) != 1 || mine.Msg.Tables[0].Code != owned.Msg.Table.Code {
		t.Errorf("expected only the bar's table, got %+v", mine.Msg.Tables)
	}

	all, err := s.tables.ListTables(ctx, connect.NewRequest(&api.ListTablesRequest{}))
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(all.Msg.Tables) != 2 {
		t.Errorf("expected 2 tables, got %d", len(all.Msg.Tables))
	}

	deleted, err := s.tables.DeleteAllTables(ctx, connect.NewRequest(&api.DeleteAllTablesRequest{Secret: testAdminSecret}))
	if err != nil {
		t.Fatalf("DeleteAllTables failed: %v", err)
	}
	if deleted.Msg.Deleted != 2 {
		t.Errorf("expected 2 deleted tables, got %d", deleted.Msg.Deleted)
	}

	// Accounts survive a bulk delete.
	if _, err := s.accounts.Login(ctx, connect.NewRequest(&api.LoginRequest{Name: "Moes", Password: "duff-beer"})); err != nil {
		t.Errorf("Login after DeleteAllTables failed: %v", err)
	}
}
