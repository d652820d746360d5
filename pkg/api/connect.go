package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// TableServiceName is the fully-qualified name of the TableService service.
	TableServiceName = "racha.v1.TableService"
	// AccountServiceName is the fully-qualified name of the AccountService service.
	AccountServiceName = "racha.v1.AccountService"
)

// Procedure paths. Each is the HTTP route a unary call is posted to.
const (
	TableServiceCreateTableProcedure     = "/racha.v1.TableService/CreateTable"
	TableServiceGetTableProcedure        = "/racha.v1.TableService/GetTable"
	TableServiceListTablesProcedure      = "/racha.v1.TableService/ListTables"
	TableServiceAddMemberProcedure       = "/racha.v1.TableService/AddMember"
	TableServiceSetMemberPaidProcedure   = "/racha.v1.TableService/SetMemberPaid"
	TableServiceAddExpenseProcedure      = "/racha.v1.TableService/AddExpense"
	TableServiceDeleteExpenseProcedure   = "/racha.v1.TableService/DeleteExpense"
	TableServiceResetTableProcedure      = "/racha.v1.TableService/ResetTable"
	TableServiceSetModeProcedure         = "/racha.v1.TableService/SetMode"
	TableServiceCloseTableProcedure      = "/racha.v1.TableService/CloseTable"
	TableServiceGetSettlementProcedure   = "/racha.v1.TableService/GetSettlement"
	TableServiceDeleteAllTablesProcedure = "/racha.v1.TableService/DeleteAllTables"

	AccountServiceRegisterBarProcedure = "/racha.v1.AccountService/RegisterBar"
	AccountServiceLoginProcedure       = "/racha.v1.AccountService/Login"
)

// TableServiceHandler is implemented by the server side of racha.v1.TableService.
type TableServiceHandler interface {
	CreateTable(context.Context, *connect.Request[CreateTableRequest]) (*connect.Response[CreateTableResponse], error)
	GetTable(context.Context, *connect.Request[GetTableRequest]) (*connect.Response[GetTableResponse], error)
	ListTables(context.Context, *connect.Request[ListTablesRequest]) (*connect.Response[ListTablesResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	SetMemberPaid(context.Context, *connect.Request[SetMemberPaidRequest]) (*connect.Response[SetMemberPaidResponse], error)
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	ResetTable(context.Context, *connect.Request[ResetTableRequest]) (*connect.Response[ResetTableResponse], error)
	SetMode(context.Context, *connect.Request[SetModeRequest]) (*connect.Response[SetModeResponse], error)
	CloseTable(context.Context, *connect.Request[CloseTableRequest]) (*connect.Response[CloseTableResponse], error)
	GetSettlement(context.Context, *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error)
	DeleteAllTables(context.Context, *connect.Request[DeleteAllTablesRequest]) (*connect.Response[DeleteAllTablesResponse], error)
}

// AccountServiceHandler is implemented by the server side of racha.v1.AccountService.
type AccountServiceHandler interface {
	RegisterBar(context.Context, *connect.Request[RegisterBarRequest]) (*connect.Response[RegisterBarResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

// NewTableServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTableServiceHandler(svc TableServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(TableServiceCreateTableProcedure, connect.NewUnaryHandler(TableServiceCreateTableProcedure, svc.CreateTable, opts...))
	mux.Handle(TableServiceGetTableProcedure, connect.NewUnaryHandler(TableServiceGetTableProcedure, svc.GetTable, opts...))
	mux.Handle(TableServiceListTablesProcedure, connect.NewUnaryHandler(TableServiceListTablesProcedure, svc.ListTables, opts...))
	mux.Handle(TableServiceAddMemberProcedure, connect.NewUnaryHandler(TableServiceAddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(TableServiceSetMemberPaidProcedure, connect.NewUnaryHandler(TableServiceSetMemberPaidProcedure, svc.SetMemberPaid, opts...))
	mux.Handle(TableServiceAddExpenseProcedure, connect.NewUnaryHandler(TableServiceAddExpenseProcedure, svc.AddExpense, opts...))
	mux.Handle(TableServiceDeleteExpenseProcedure, connect.NewUnaryHandler(TableServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(TableServiceResetTableProcedure, connect.NewUnaryHandler(TableServiceResetTableProcedure, svc.ResetTable, opts...))
	mux.Handle(TableServiceSetModeProcedure, connect.NewUnaryHandler(TableServiceSetModeProcedure, svc.SetMode, opts...))
	mux.Handle(TableServiceCloseTableProcedure, connect.NewUnaryHandler(TableServiceCloseTableProcedure, svc.CloseTable, opts...))
	mux.Handle(TableServiceGetSettlementProcedure, connect.NewUnaryHandler(TableServiceGetSettlementProcedure, svc.GetSettlement, opts...))
	mux.Handle(TableServiceDeleteAllTablesProcedure, connect.NewUnaryHandler(TableServiceDeleteAllTablesProcedure, svc.DeleteAllTables, opts...))
	return "/" + TableServiceName + "/", mux
}

// NewAccountServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAccountServiceHandler(svc AccountServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AccountServiceRegisterBarProcedure, connect.NewUnaryHandler(AccountServiceRegisterBarProcedure, svc.RegisterBar, opts...))
	mux.Handle(AccountServiceLoginProcedure, connect.NewUnaryHandler(AccountServiceLoginProcedure, svc.Login, opts...))
	return "/" + AccountServiceName + "/", mux
}

// TableServiceClient is a client for racha.v1.TableService.
type TableServiceClient struct {
	createTable     *connect.Client[CreateTableRequest, CreateTableResponse]
	getTable        *connect.Client[GetTableRequest, GetTableResponse]
	listTables      *connect.Client[ListTablesRequest, ListTablesResponse]
	addMember       *connect.Client[AddMemberRequest, AddMemberResponse]
	setMemberPaid   *connect.Client[SetMemberPaidRequest, SetMemberPaidResponse]
	addExpense      *connect.Client[AddExpenseRequest, AddExpenseResponse]
	deleteExpense   *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	resetTable      *connect.Client[ResetTableRequest, ResetTableResponse]
	setMode         *connect.Client[SetModeRequest, SetModeResponse]
	closeTable      *connect.Client[CloseTableRequest, CloseTableResponse]
	getSettlement   *connect.Client[GetSettlementRequest, GetSettlementResponse]
	deleteAllTables *connect.Client[DeleteAllTablesRequest, DeleteAllTablesResponse]
}

// NewTableServiceClient constructs a client for racha.v1.TableService. baseURL
// is the server root, e.g. http://localhost:8080.
func NewTableServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TableServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &TableServiceClient{
		createTable:     connect.NewClient[CreateTableRequest, CreateTableResponse](httpClient, baseURL+TableServiceCreateTableProcedure, opts...),
		getTable:        connect.NewClient[GetTableRequest, GetTableResponse](httpClient, baseURL+TableServiceGetTableProcedure, opts...),
		listTables:      connect.NewClient[ListTablesRequest, ListTablesResponse](httpClient, baseURL+TableServiceListTablesProcedure, opts...),
		addMember:       connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+TableServiceAddMemberProcedure, opts...),
		setMemberPaid:   connect.NewClient[SetMemberPaidRequest, SetMemberPaidResponse](httpClient, baseURL+TableServiceSetMemberPaidProcedure, opts...),
		addExpense:      connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+TableServiceAddExpenseProcedure, opts...),
		deleteExpense:   connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+TableServiceDeleteExpenseProcedure, opts...),
		resetTable:      connect.NewClient[ResetTableRequest, ResetTableResponse](httpClient, baseURL+TableServiceResetTableProcedure, opts...),
		setMode:         connect.NewClient[SetModeRequest, SetModeResponse](httpClient, baseURL+TableServiceSetModeProcedure, opts...),
		closeTable:      connect.NewClient[CloseTableRequest, CloseTableResponse](httpClient, baseURL+TableServiceCloseTableProcedure, opts...),
		getSettlement:   connect.NewClient[GetSettlementRequest, GetSettlementResponse](httpClient, baseURL+TableServiceGetSettlementProcedure, opts...),
		deleteAllTables: connect.NewClient[DeleteAllTablesRequest, DeleteAllTablesResponse](httpClient, baseURL+TableServiceDeleteAllTablesProcedure, opts...),
	}
}

// CreateTable calls racha.v1.TableService.CreateTable.
func (c *TableServiceClient) CreateTable(ctx context.Context, req *connect.Request[CreateTableRequest]) (*connect.Response[CreateTableResponse], error) {
	return c.createTable.CallUnary(ctx, req)
}

// GetTable calls racha.v1.TableService.GetTable.
func (c *TableServiceClient) GetTable(ctx context.Context, req *connect.Request[GetTableRequest]) (*connect.Response[GetTableResponse], error) {
	return c.getTable.CallUnary(ctx, req)
}

// ListTables calls racha.v1.TableService.ListTables.
func (c *TableServiceClient) ListTables(ctx context.Context, req *connect.Request[ListTablesRequest]) (*connect.Response[ListTablesResponse], error) {
	return c.listTables.CallUnary(ctx, req)
}

// AddMember calls racha.v1.TableService.AddMember.
func (c *TableServiceClient) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

// SetMemberPaid calls racha.v1.TableService.SetMemberPaid.
func (c *TableServiceClient) SetMemberPaid(ctx context.Context, req *connect.Request[SetMemberPaidRequest]) (*connect.Response[SetMemberPaidResponse], error) {
	return c.setMemberPaid.CallUnary(ctx, req)
}

// AddExpense calls racha.v1.TableService.AddExpense.
func (c *TableServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

// DeleteExpense calls racha.v1.TableService.DeleteExpense.
func (c *TableServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

// ResetTable calls racha.v1.TableService.ResetTable.
func (c *TableServiceClient) ResetTable(ctx context.Context, req *connect.Request[ResetTableRequest]) (*connect.Response[ResetTableResponse], error) {
	return c.resetTable.CallUnary(ctx, req)
}

// SetMode calls racha.v1.TableService.SetMode.
func (c *TableServiceClient) SetMode(ctx context.Context, req *connect.Request[SetModeRequest]) (*connect.Response[SetModeResponse], error) {
	return c.setMode.CallUnary(ctx, req)
}

// CloseTable calls racha.v1.TableService.CloseTable.
func (c *TableServiceClient) CloseTable(ctx context.Context, req *connect.Request[CloseTableRequest]) (*connect.Response[CloseTableResponse], error) {
	return c.closeTable.CallUnary(ctx, req)
}

// GetSettlement calls racha.v1.TableService.GetSettlement.
func (c *TableServiceClient) GetSettlement(ctx context.Context, req *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

// DeleteAllTables calls racha.v1.TableService.DeleteAllTables.
func (c *TableServiceClient) DeleteAllTables(ctx context.Context, req *connect.Request[DeleteAllTablesRequest]) (*connect.Response[DeleteAllTablesResponse], error) {
	return c.deleteAllTables.CallUnary(ctx, req)
}

// AccountServiceClient is a client for racha.v1.AccountService.
type AccountServiceClient struct {
	registerBar *connect.Client[RegisterBarRequest, RegisterBarResponse]
	login       *connect.Client[LoginRequest, LoginResponse]
}

// NewAccountServiceClient constructs a client for racha.v1.AccountService.
func NewAccountServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AccountServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AccountServiceClient{
		registerBar: connect.NewClient[RegisterBarRequest, RegisterBarResponse](httpClient, baseURL+AccountServiceRegisterBarProcedure, opts...),
		login:       connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AccountServiceLoginProcedure, opts...),
	}
}

// RegisterBar calls racha.v1.AccountService.RegisterBar.
func (c *AccountServiceClient) RegisterBar(ctx context.Context, req *connect.Request[RegisterBarRequest]) (*connect.Response[RegisterBarResponse], error) {
	return c.registerBar.CallUnary(ctx, req)
}

// Login calls racha.v1.AccountService.Login.
func (c *AccountServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}
