package testcluster

import (
	"encoding/json"
	"net/http"
)

// Paths the default handler treats specially.
const (
	PathSniff    = "/_nodes/_all/http"
	PathErrIndex = "/err-index/_search"
)

var (
	bodyHello      = []byte(`{"hello":"world"}`)
	bodyBadGateway = []byte(`{"error":"502"}`)
)

// NewHandler returns the canned node handler backed by dir. With partitioned
// set, sniff responses leave out the oldest registered node.
//
//	GET /_nodes/_all/http   -> the discovery directory
//	GET /err-index/_search  -> 502 {"error":"502"}
//	anything else           -> 200 {"hello":"world"}
func NewHandler(dir *Directory, partitioned bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		switch r.URL.Path {
		case PathSniff:
			var result SniffResult
			if partitioned {
				result = dir.Partitioned()
			} else {
				result = dir.Snapshot()
			}
			body, err := json.Marshal(result)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"encode sniff result"}`))
				return
			}
			_, _ = w.Write(body)
		case PathErrIndex:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write(bodyBadGateway)
		default:
			_, _ = w.Write(bodyHello)
		}
	})
}
