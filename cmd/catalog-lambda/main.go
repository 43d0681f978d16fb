package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/healthhub-platform/internal/app/bootstrap"
	"github.com/wolfman30/healthhub-platform/internal/catalog"
	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// catalogService is the part of catalog.Service the lambda serves.
type catalogService interface {
	ListPage(ctx context.Context, category string, facets catalog.FacetState) catalog.PageResult
	FacetOptions(ctx context.Context, category string) catalog.OptionsResult
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if strings.TrimSpace(os.Getenv("DATA_API_BASE_URL")) == "" {
		panic(errors.New("DATA_API_BASE_URL is required"))
	}

	ctx := context.Background()
	client := dataapi.NewClient(dataapi.Options{
		BaseURL: cfg.DataAPIBaseURL,
		Token:   cfg.DataAPIToken,
		Timeout: cfg.DataAPITimeout,
		Logger:  logger,
	})
	service := catalog.NewService(client, catalog.ServiceOptions{
		Redis:    bootstrap.BuildRedisClient(ctx, cfg, logger, true),
		CacheTTL: cfg.FacetCacheTTL,
		Logger:   logger,
	})

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, service, evt)
	})
}

func handle(ctx context.Context, service catalogService, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	path = strings.TrimSuffix(path, "/")

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}

	if method != http.MethodGet {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}

	query, err := url.ParseQuery(evt.RawQueryString)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": "invalid query string"}), nil
	}
	if token, ok := bearerToken(evt.Headers); ok {
		ctx = dataapi.ContextWithToken(ctx, token)
	}

	switch path {
	case "/catalog/products":
		facets, err := catalog.ParseFacetState(query)
		if err != nil {
			return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
		}
		reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return jsonResponse(http.StatusOK, service.ListPage(reqCtx, query.Get("category"), facets)), nil
	case "/catalog/facets":
		return jsonResponse(http.StatusOK, service.FacetOptions(ctx, query.Get("category"))), nil
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func bearerToken(headers map[string]string) (string, bool) {
	raw := strings.TrimSpace(headerValue(headers, "authorization"))
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(raw[7:])
	return token, token != ""
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
