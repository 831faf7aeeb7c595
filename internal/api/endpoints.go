package api

import "net/http"

// SniffPath is the node discovery endpoint.
const SniffPath = "/_nodes/_all/http"

var infoEndpoint = endpoint{
	accepted:  commonQuerystring,
	snakeCase: commonSnakeCase,
}

// Info builds GET /.
func Info(p Params) (*Request, error) {
	rest, method, _ := p.split()
	if method == "" {
		method = http.MethodGet
	}
	q, warnings := infoEndpoint.snakeCaseKeys(rest)
	return &Request{Method: method, Path: "/", Querystring: q, Warnings: warnings}, nil
}

var searchEndpoint = endpoint{
	accepted: append([]string{
		"q", "from", "size", "sort", "timeout", "routing", "preference",
		"track_total_hits", "allow_no_indices", "ignore_unavailable",
		"expand_wildcards", "rest_total_hits_as_int", "search_type",
	}, commonQuerystring...),
	snakeCase: merge(commonSnakeCase, map[string]string{
		"trackTotalHits":     "track_total_hits",
		"allowNoIndices":     "allow_no_indices",
		"ignoreUnavailable":  "ignore_unavailable",
		"expandWildcards":    "expand_wildcards",
		"restTotalHitsAsInt": "rest_total_hits_as_int",
		"searchType":         "search_type",
	}),
}

// Search builds GET|POST /{index}/_search, or /_search without an index.
// The method defaults to POST when a body is given.
func Search(p Params) (*Request, error) {
	rest, method, body := p.split()
	index := rest.take("index")
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}
	path := "/_search"
	if index != nil {
		path = "/" + segment(index) + "/_search"
	}
	q, warnings := searchEndpoint.snakeCaseKeys(rest)
	return &Request{Method: method, Path: path, Querystring: q, Body: body, Warnings: warnings}, nil
}

var nodesInfoEndpoint = endpoint{
	accepted:  append([]string{"flat_settings", "timeout"}, commonQuerystring...),
	snakeCase: merge(commonSnakeCase, map[string]string{"flatSettings": "flat_settings"}),
}

// NodesInfo builds GET /_nodes/{node_id}/{metric}. node_id defaults to _all
// and metric to http, which is the sniff request.
func NodesInfo(p Params) (*Request, error) {
	rest, method, body := p.split()
	if body != nil {
		return nil, errBodyNotAllowed
	}
	nodeID := rest.take("node_id", "nodeId")
	if nodeID == nil {
		nodeID = "_all"
	}
	metric := rest.take("metric")
	if metric == nil {
		metric = "http"
	}
	if method == "" {
		method = http.MethodGet
	}
	q, warnings := nodesInfoEndpoint.snakeCaseKeys(rest)
	return &Request{
		Method:      method,
		Path:        "/_nodes/" + segment(nodeID) + "/" + segment(metric),
		Querystring: q,
		Warnings:    warnings,
	}, nil
}

var indicesCreateEndpoint = endpoint{
	accepted: append([]string{
		"include_type_name", "wait_for_active_shards", "timeout", "master_timeout",
	}, commonQuerystring...),
	snakeCase: merge(commonSnakeCase, map[string]string{
		"includeTypeName":     "include_type_name",
		"waitForActiveShards": "wait_for_active_shards",
		"masterTimeout":       "master_timeout",
	}),
}

// IndicesCreate builds PUT /{index}.
func IndicesCreate(p Params) (*Request, error) {
	rest, method, body := p.split()
	index := rest.take("index")
	if index == nil {
		return nil, missingParam("index")
	}
	if method == "" {
		method = http.MethodPut
	}
	q, warnings := indicesCreateEndpoint.snakeCaseKeys(rest)
	return &Request{Method: method, Path: "/" + segment(index), Querystring: q, Body: body, Warnings: warnings}, nil
}

var mlGetRecordsEndpoint = endpoint{
	accepted: []string{
		"exclude_interim", "from", "size", "start", "end", "record_score", "sort", "desc",
	},
	snakeCase: map[string]string{
		"excludeInterim": "exclude_interim",
		"recordScore":    "record_score",
	},
}

// MlGetRecords builds GET|POST /_ml/anomaly_detectors/{job_id}/results/records.
// The method defaults to POST when a body is given.
func MlGetRecords(p Params) (*Request, error) {
	rest, method, body := p.split()
	jobID := rest.take("job_id", "jobId")
	if jobID == nil {
		return nil, missingParam("job_id", "jobId")
	}
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}
	q, warnings := mlGetRecordsEndpoint.snakeCaseKeys(rest)
	return &Request{
		Method:      method,
		Path:        "/_ml/anomaly_detectors/" + segment(jobID) + "/results/records",
		Querystring: q,
		Body:        body,
		Warnings:    warnings,
	}, nil
}

var mlUpdateDatafeedEndpoint = endpoint{}

// MlUpdateDatafeed builds POST /_ml/datafeeds/{datafeed_id}/_update. A body
// is required.
func MlUpdateDatafeed(p Params) (*Request, error) {
	rest, method, body := p.split()
	datafeedID := rest.take("datafeed_id", "datafeedId")
	if datafeedID == nil {
		return nil, missingParam("datafeed_id", "datafeedId")
	}
	if body == nil {
		return nil, missingParam("body")
	}
	if method == "" {
		method = http.MethodPost
	}
	q, warnings := mlUpdateDatafeedEndpoint.snakeCaseKeys(rest)
	return &Request{
		Method:      method,
		Path:        "/_ml/datafeeds/" + segment(datafeedID) + "/_update",
		Querystring: q,
		Body:        body,
		Warnings:    warnings,
	}, nil
}

var stopTransformEndpoint = endpoint{
	accepted: []string{"wait_for_completion", "timeout", "allow_no_match"},
	snakeCase: map[string]string{
		"waitForCompletion": "wait_for_completion",
		"allowNoMatch":      "allow_no_match",
	},
}

// DataFrameStopDataFrameTransform builds
// POST /_data_frame/transforms/{transform_id}/_stop. A body is rejected.
func DataFrameStopDataFrameTransform(p Params) (*Request, error) {
	rest, method, body := p.split()
	transformID := rest.take("transform_id", "transformId")
	if transformID == nil {
		return nil, missingParam("transform_id", "transformId")
	}
	if body != nil {
		return nil, errBodyNotAllowed
	}
	if method == "" {
		method = http.MethodPost
	}
	q, warnings := stopTransformEndpoint.snakeCaseKeys(rest)
	return &Request{
		Method:      method,
		Path:        "/_data_frame/transforms/" + segment(transformID) + "/_stop",
		Querystring: q,
		Warnings:    warnings,
	}, nil
}

func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
