package graphstore

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/deepresearch/investigator/pkg/domain"
)

// QueryInsights runs an ad-hoc jq expression against the discovery-query
// insights, letting the report renderer slice them (e.g. "group by kind"
// or "top 5 by entity count") without a bespoke Go accessor per view.
func QueryInsights(insights []domain.GraphInsight, expr string) ([]interface{}, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse jq expression %q: %w", expr, err)
	}

	raw, err := json.Marshal(insights)
	if err != nil {
		return nil, fmt.Errorf("marshal insights: %w", err)
	}

	var input interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("unmarshal insights for querying: %w", err)
	}

	iter := query.Run(input)
	var results []interface{}
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return results, fmt.Errorf("jq expression %q: %w", expr, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// InsightsByKind groups insights by their Kind, the shape the report
// renderer's "Organizational Connections" / "Key Findings" sections use.
func InsightsByKind(insights []domain.GraphInsight) map[string][]domain.GraphInsight {
	grouped := map[string][]domain.GraphInsight{}
	for _, ins := range insights {
		grouped[ins.Kind] = append(grouped[ins.Kind], ins)
	}
	return grouped
}
