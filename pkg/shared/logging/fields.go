package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a chainable, map-based structured-logging field builder. Every
// setter returns the receiver so calls can be composed inline at a call
// site, and ToZap converts the accumulated set into zap.Field slices.
type Fields map[string]interface{}

func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, name string) Fields {
	f["resource_type"] = resourceType
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus returns the fields as a plain map, for callers that still log
// through a logrus-shaped interface instead of zap directly.
func (f Fields) ToLogrus() map[string]interface{} {
	return map[string]interface{}(f)
}

// ToZap converts the accumulated fields into zap.Field values for use with
// go.uber.org/zap, the logger this module standardizes on.
func (f Fields) ToZap() []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// ToZapCore is the zapcore.Field equivalent of ToZap, used by code that
// builds encoders directly rather than going through the zap.Logger API.
func (f Fields) ToZapCore() []zapcore.Field {
	return f.ToZap()
}

// Domain-specific constructors bundle the fields a given subsystem always
// wants to report.

func DatabaseFields(operation, table string) Fields {
	return NewFields().Component("database").Operation(operation).Resource("table", table)
}

func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

func WorkflowFields(operation, workflowID string) Fields {
	return NewFields().Component("workflow").Operation(operation).Resource("workflow", workflowID)
}

func KubernetesFields(operation, resourceType, name, namespace string) Fields {
	fields := NewFields().Component("kubernetes").Operation(operation).Resource(resourceType, name)
	if namespace != "" {
		fields["namespace"] = namespace
	}
	return fields
}

func AIFields(operation, model string) Fields {
	return NewFields().Component("ai").Operation(operation).Custom("model", model)
}

func MetricsFields(operation, metricName string, value float64) Fields {
	return NewFields().Component("metrics").Operation(operation).Custom("metric_name", metricName).Custom("value", value)
}

func SecurityFields(operation, subject string) Fields {
	return NewFields().Component("security").Operation(operation).Custom("subject", subject)
}

func PerformanceFields(operation string, duration time.Duration, success bool) Fields {
	return NewFields().Component("performance").Operation(operation).Duration(duration).Custom("success", success)
}

// SearchFields covers search-provider calls (Tavily/Brave-equivalent).
func SearchFields(provider, query string, resultCount int) Fields {
	return NewFields().Component("search").Operation("query").Custom("provider", provider).Custom("query", query).Count(resultCount)
}

// FetchFields covers tiered-fetcher calls to a single URL.
func FetchFields(tier int, url string, statusCode int) Fields {
	return NewFields().Component("fetch").Custom("tier", tier).URL(url).StatusCode(statusCode)
}

// LLMFields covers LLM-gateway calls across tier/provider/task dimensions.
func LLMFields(provider, tier, task string) Fields {
	return NewFields().Component("llm").Custom("provider", provider).Custom("tier", tier).Custom("task", task)
}

// GraphFields covers Neo4j persistence and discovery-query calls.
func GraphFields(operation string, nodeCount, relCount int) Fields {
	return NewFields().Component("graph").Operation(operation).Custom("node_count", nodeCount).Custom("relationship_count", relCount)
}

// InvestigationFields covers director/engine phase transitions.
func InvestigationFields(investigationID, phase string, iteration int) Fields {
	return NewFields().Component("investigation").Custom("investigation_id", investigationID).Custom("phase", phase).Custom("iteration", iteration)
}
