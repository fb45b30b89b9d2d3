package bridge

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/wajed-network/bridge/pkg/api"
)

// routes returns all endpoints of the bridge
func (b *Bridge) routes() []api.Route {
	return []api.Route{
		{Path: "/", Method: http.MethodGet, Handler: b.root, Doc: operation("Lists the available endpoints", nil, "Liveness")},
		{Path: "/test", Method: http.MethodGet, Handler: b.test, Doc: operation("Reports that the bot is running", nil, "Liveness")},
		{
			Path: "/assign-role", Method: http.MethodGet, Handler: b.assignRole,
			Doc: operation("Adds or removes a role of a member of the roles guild", openapi3.Parameters{
				queryParam("userId", "Discord id of the member"),
				queryParam("roleId", "Discord id of the role"),
				queryParam("action", "add or remove"),
			}, "Roles", http.StatusBadRequest, http.StatusNotFound, http.StatusServiceUnavailable),
		},
		{
			Path: "/process-qcm", Method: http.MethodPost, Handler: b.processQCM,
			Doc: withBody(operation("Grades a quiz and grants the role when passed", nil, "Roles"), submissionSchema()),
		},
		{Path: "/v1/status", Method: http.MethodGet, Handler: b.getStatus, Doc: operation("Returns the latest service checks", nil, "Status", http.StatusNotFound)},
		{Path: "/openapi", Method: http.MethodGet, Handler: b.getOpenapi},
		{Path: "/metrics", Method: "Handle", Handler: b.metrics.Handler().ServeHTTP},
	}
}

func operation(desc string, params openapi3.Parameters, tag string, failures ...int) *openapi3.Operation {
	ok := "OK"
	op := &openapi3.Operation{
		Description: desc,
		Tags:        []string{tag},
		Parameters:  params,
		Responses: openapi3.Responses{
			"200": &openapi3.ResponseRef{Value: &openapi3.Response{
				Description: &ok,
				Content:     openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()),
			}},
			"500": &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Internal server error")},
		},
	}
	for _, code := range failures {
		op.AddResponse(code, openapi3.NewResponse().WithDescription(http.StatusText(code)))
	}
	return op
}

func queryParam(name, desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).
		WithDescription(desc).
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema())}
}

func withBody(op *openapi3.Operation, schema *openapi3.Schema) *openapi3.Operation {
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(schema)}
	return op
}

func submissionSchema() *openapi3.Schema {
	answers := openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("userId", openapi3.NewStringSchema()).
		WithProperty("roleId", openapi3.NewStringSchema()).
		WithProperty("answers", answers).
		WithProperty("correctAnswers", answers)
}
