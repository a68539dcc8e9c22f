package server

// ServiceName is the fully-qualified name of the document service.
const ServiceName = "dotstore.v1.DocumentService"

// Procedure paths. Every procedure takes a google.protobuf.Struct request and
// returns a google.protobuf.Value.
const (
	GetProcedure    = "/" + ServiceName + "/Get"
	HasProcedure    = "/" + ServiceName + "/Has"
	SetProcedure    = "/" + ServiceName + "/Set"
	DeleteProcedure = "/" + ServiceName + "/Delete"
	ClearProcedure  = "/" + ServiceName + "/Clear"
	DumpProcedure   = "/" + ServiceName + "/Dump"
	SelectProcedure = "/" + ServiceName + "/Select"
	EvalProcedure   = "/" + ServiceName + "/Eval"
	ListProcedure   = "/" + ServiceName + "/List"
)

// Request field names.
const (
	FieldDocument = "document"
	FieldPath     = "path"
	FieldValue    = "value"
	FieldDefault  = "default"
	FieldExpr     = "expr"
)
