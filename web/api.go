package web

import (
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"strconv"
	"strings"
	"swotdb/index"
	ownIo "swotdb/io"
	"swotdb/parser"
	"swotdb/query"
	"swotdb/swath"
)

const maxLengthOfPrintedQuery = 10000

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type QueryResponse struct {
	Query     string             `json:"query"`
	TileCount int                `json:"tile_count"`
	LineCount int                `json:"line_count"`
	Variables []string           `json:"variables"`
	Files     []query.FileSlices `json:"files"`
}

// StatsSource is the part of the spatial index the API needs.
type StatsSource interface {
	query.TileSource
	Stats() index.Stats
}

func StartServer(port string, spatialIndex StatsSource, opener swath.Opener, extractLimit rate.Limit) {
	r := InitRouter(spatialIndex, opener, extractLimit)
	sigolo.Infof("Start server on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

// InitRouter creates the routes of the API. The opener is used to read the swath files when extracting data, which is
// limited to extractLimit requests per second. Use rate.Inf to disable the limit.
func InitRouter(spatialIndex StatsSource, opener swath.Opener, extractLimit rate.Limit) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/stats", func(writer http.ResponseWriter, request *http.Request) {
		writeJson(writer, http.StatusOK, spatialIndex.Stats())
	}).Methods(http.MethodGet)

	r.HandleFunc("/query", func(writer http.ResponseWriter, request *http.Request) {
		q, err := queryFromParameters(request)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Invalid query parameters", err)
			return
		}
		writeQueryResult(writer, q.Execute(spatialIndex))
	}).Methods(http.MethodGet)

	r.HandleFunc("/query", func(writer http.ResponseWriter, request *http.Request) {
		q, err := queryFromBody(request)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing query", err)
			return
		}
		writeQueryResult(writer, q.Execute(spatialIndex))
	}).Methods(http.MethodPost)

	r.HandleFunc("/query.geojson", func(writer http.ResponseWriter, request *http.Request) {
		q, err := queryFromParameters(request)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Invalid query parameters", err)
			return
		}

		result := q.Execute(spatialIndex)
		writer.Header().Set("Content-Type", "application/geo+json")
		err = ownIo.WriteTileHitsAsGeoJson(writer, result.Hits, &q.Bound)
		if err != nil {
			sigolo.Errorf("Error writing query result: %+v", err)
		}
	}).Methods(http.MethodGet)

	extractBurst := 1
	if extractLimit != rate.Inf && extractLimit > 1 {
		extractBurst = int(extractLimit)
	}
	extractLimiter := rate.NewLimiter(extractLimit, extractBurst)
	r.Handle("/extract", rateLimitMiddleware(extractLimiter)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		q, err := queryFromParameters(request)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Invalid query parameters", err)
			return
		}

		extraction := q.Execute(spatialIndex).Extract(opener)
		if len(extraction.Files) == 0 && len(extraction.Failed) > 0 {
			writeError(writer, http.StatusInternalServerError, "Error reading swath files", extraction.Failed[0].Err)
			return
		}

		// The data may contain NaN fill values which can't be represented in JSON, so the container format is used.
		writer.Header().Set("Content-Type", "application/octet-stream")
		writer.Header().Set("X-Line-Count", strconv.Itoa(extraction.LineCount()))
		err = swath.WriteContainer(writer, extraction.ToSwath())
		if err != nil {
			sigolo.Errorf("Error writing extraction: %+v", err)
		}
	}))).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(writer, request)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.Allow() {
				writer.Header().Set("Retry-After", "1")
				writeError(writer, http.StatusTooManyRequests, "Too many requests, try again later", errors.Errorf("Limit of %g requests per second exceeded", float64(limiter.Limit())))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// queryFromParameters creates the query from the URL parameters lat_min, lat_max, lon_min and lon_max as well as the
// optional parameters time_start, time_end and variables.
func queryFromParameters(request *http.Request) (*query.Query, error) {
	parameters := request.URL.Query()

	var coordinates [4]float64
	for i, name := range []string{"lat_min", "lat_max", "lon_min", "lon_max"} {
		value := parameters.Get(name)
		if value == "" {
			return nil, errors.Errorf("Missing parameter '%s'", name)
		}

		var err error
		coordinates[i], err = strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Errorf("Parameter '%s' must be a number but was '%s'", name, value)
		}
	}

	timeStart, err := query.ParseTime(parameters.Get("time_start"))
	if err != nil {
		return nil, errors.Wrap(err, "Invalid parameter 'time_start'")
	}
	timeEnd, err := query.ParseTime(parameters.Get("time_end"))
	if err != nil {
		return nil, errors.Wrap(err, "Invalid parameter 'time_end'")
	}

	q := query.NewQuery(coordinates[0], coordinates[1], coordinates[2], coordinates[3]).WithTimeRange(timeStart, timeEnd)
	var variables []string
	for _, value := range parameters["variables"] {
		for _, variable := range strings.Split(value, ",") {
			if variable = strings.TrimSpace(variable); variable != "" {
				variables = append(variables, variable)
			}
		}
	}
	q.WithVariables(variables...)
	return q, nil
}

func queryFromBody(request *http.Request) (*query.Query, error) {
	queryBytes, err := io.ReadAll(request.Body)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading HTTP body")
	}

	queryString := string(queryBytes)

	trimmedQueryString := queryString
	queryRunes := []rune(queryString)
	if len(queryRunes) > maxLengthOfPrintedQuery {
		trimmedQueryString = string(queryRunes[:maxLengthOfPrintedQuery]) + "... [truncated]"
	}
	sigolo.Infof("Query:\n%s", trimmedQueryString)

	return parser.ParseQueryString(queryString)
}

func writeQueryResult(writer http.ResponseWriter, result *query.Result) {
	writeJson(writer, http.StatusOK, QueryResponse{
		Query:     result.Query.String(),
		TileCount: result.TileCount,
		LineCount: result.LineCount(),
		Variables: result.Query.Variables,
		Files:     result.Files,
	})
}

func writeError(writer http.ResponseWriter, status int, message string, err error) {
	sigolo.Errorf("%s: %+v", message, err)
	writeJson(writer, status, ErrorResponse{
		Error:   message,
		Details: err.Error(),
	})
}

func writeJson(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	err := json.NewEncoder(writer).Encode(value)
	if err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}
