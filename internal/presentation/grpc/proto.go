package grpc

// proto.go defines the fintrack.loans.v1.LoanService contract by hand: the
// message structs travel through the JSON codec and the service descriptor
// is registered directly with grpc.Server.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/fintrack/internal/application/dto"
)

const serviceName = "fintrack.loans.v1.LoanService"

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// Amounts and rates are decimal strings, dates are YYYY-MM-DD.

type CreateLoanRequest struct {
	Name              string `json:"name"`
	Principal         string `json:"principal"`
	AnnualRatePercent string `json:"annual_rate_percent"`
	StartDate         string `json:"start_date"`
	Currency          string `json:"currency"`
	TermMonths        int    `json:"term_months"`
}

type RecordPaymentRequest struct {
	LoanID      string `json:"loan_id"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date"`
	Note        string `json:"note"`
}

type GetLoanRequest struct {
	LoanID string `json:"loan_id"`
}

type ListLoansRequest struct{}

type GetScheduleRequest struct {
	LoanID string `json:"loan_id"`
}

type DeleteLoanRequest struct {
	LoanID string `json:"loan_id"`
}

type CalculateLoanRequest struct {
	Principal         string `json:"principal"`
	AnnualRatePercent string `json:"annual_rate_percent"`
	StartDate         string `json:"start_date"`
	Currency          string `json:"currency"`
	TermMonths        int    `json:"term_months"`
	IncludeSchedule   bool   `json:"include_schedule"`
}

type LoanResponse struct {
	Loan dto.LoanResponse `json:"loan"`
}

type RecordPaymentResponse = dto.RecordPaymentResponse

type ListLoansResponse = dto.ListLoansResponse

type GetScheduleResponse = dto.ScheduleResponse

type DeleteLoanResponse = dto.DeleteLoanResponse

type CalculateLoanResponse = dto.CalculateLoanResponse

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// LoanServiceServer is the server API for LoanService.
type LoanServiceServer interface {
	CreateLoan(context.Context, *CreateLoanRequest) (*LoanResponse, error)
	RecordPayment(context.Context, *RecordPaymentRequest) (*RecordPaymentResponse, error)
	GetLoan(context.Context, *GetLoanRequest) (*LoanResponse, error)
	ListLoans(context.Context, *ListLoansRequest) (*ListLoansResponse, error)
	GetSchedule(context.Context, *GetScheduleRequest) (*GetScheduleResponse, error)
	DeleteLoan(context.Context, *DeleteLoanRequest) (*DeleteLoanResponse, error)
	CalculateLoan(context.Context, *CalculateLoanRequest) (*CalculateLoanResponse, error)
	mustEmbedUnimplementedLoanServiceServer()
}

// UnimplementedLoanServiceServer provides forward-compatible default implementations.
type UnimplementedLoanServiceServer struct{}

func (UnimplementedLoanServiceServer) CreateLoan(context.Context, *CreateLoanRequest) (*LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLoan not implemented")
}
func (UnimplementedLoanServiceServer) RecordPayment(context.Context, *RecordPaymentRequest) (*RecordPaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordPayment not implemented")
}
func (UnimplementedLoanServiceServer) GetLoan(context.Context, *GetLoanRequest) (*LoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLoan not implemented")
}
func (UnimplementedLoanServiceServer) ListLoans(context.Context, *ListLoansRequest) (*ListLoansResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLoans not implemented")
}
func (UnimplementedLoanServiceServer) GetSchedule(context.Context, *GetScheduleRequest) (*GetScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSchedule not implemented")
}
func (UnimplementedLoanServiceServer) DeleteLoan(context.Context, *DeleteLoanRequest) (*DeleteLoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteLoan not implemented")
}
func (UnimplementedLoanServiceServer) CalculateLoan(context.Context, *CalculateLoanRequest) (*CalculateLoanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CalculateLoan not implemented")
}
func (UnimplementedLoanServiceServer) mustEmbedUnimplementedLoanServiceServer() {}

// RegisterLoanServiceServer registers srv with the gRPC server.
func RegisterLoanServiceServer(s grpclib.ServiceRegistrar, srv LoanServiceServer) {
	s.RegisterService(&loanServiceDesc, srv)
}

var loanServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LoanServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "CreateLoan", Handler: unaryHandler("CreateLoan", LoanServiceServer.CreateLoan)},
		{MethodName: "RecordPayment", Handler: unaryHandler("RecordPayment", LoanServiceServer.RecordPayment)},
		{MethodName: "GetLoan", Handler: unaryHandler("GetLoan", LoanServiceServer.GetLoan)},
		{MethodName: "ListLoans", Handler: unaryHandler("ListLoans", LoanServiceServer.ListLoans)},
		{MethodName: "GetSchedule", Handler: unaryHandler("GetSchedule", LoanServiceServer.GetSchedule)},
		{MethodName: "DeleteLoan", Handler: unaryHandler("DeleteLoan", LoanServiceServer.DeleteLoan)},
		{MethodName: "CalculateLoan", Handler: unaryHandler("CalculateLoan", LoanServiceServer.CalculateLoan)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "fintrack/loans/v1/loans.proto",
}

// FullMethod returns the gRPC method path of a LoanService method.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

// unaryHandler adapts a typed LoanServiceServer method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](
	method string,
	call func(LoanServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodHandler {
	fullMethod := FullMethod(method)

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LoanServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LoanServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client calls LoanService over an existing connection using the JSON codec.
type Client struct {
	cc grpclib.ClientConnInterface
}

// NewClient returns a LoanService client bound to cc.
func NewClient(cc grpclib.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateLoan(ctx context.Context, in *CreateLoanRequest, opts ...grpclib.CallOption) (*LoanResponse, error) {
	return invoke[LoanResponse](ctx, c.cc, "CreateLoan", in, opts)
}

func (c *Client) RecordPayment(ctx context.Context, in *RecordPaymentRequest, opts ...grpclib.CallOption) (*RecordPaymentResponse, error) {
	return invoke[RecordPaymentResponse](ctx, c.cc, "RecordPayment", in, opts)
}

func (c *Client) GetLoan(ctx context.Context, in *GetLoanRequest, opts ...grpclib.CallOption) (*LoanResponse, error) {
	return invoke[LoanResponse](ctx, c.cc, "GetLoan", in, opts)
}

func (c *Client) ListLoans(ctx context.Context, in *ListLoansRequest, opts ...grpclib.CallOption) (*ListLoansResponse, error) {
	return invoke[ListLoansResponse](ctx, c.cc, "ListLoans", in, opts)
}

func (c *Client) GetSchedule(ctx context.Context, in *GetScheduleRequest, opts ...grpclib.CallOption) (*GetScheduleResponse, error) {
	return invoke[GetScheduleResponse](ctx, c.cc, "GetSchedule", in, opts)
}

func (c *Client) DeleteLoan(ctx context.Context, in *DeleteLoanRequest, opts ...grpclib.CallOption) (*DeleteLoanResponse, error) {
	return invoke[DeleteLoanResponse](ctx, c.cc, "DeleteLoan", in, opts)
}

func (c *Client) CalculateLoan(ctx context.Context, in *CalculateLoanRequest, opts ...grpclib.CallOption) (*CalculateLoanResponse, error) {
	return invoke[CalculateLoanResponse](ctx, c.cc, "CalculateLoan", in, opts)
}

func invoke[Resp any](ctx context.Context, cc grpclib.ClientConnInterface, method string, in any, opts []grpclib.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
