package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/athapong/relfeat/pkg/config"
	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/pipeline"
	"github.com/athapong/relfeat/pkg/resolver"
)

// FeatureServer answers feature tool calls against one resolver
type FeatureServer struct {
	registry *resolver.Registry
	resolver *resolver.Resolver
	hydrator *evidence.Hydrator
	logger   *logrus.Logger
}

// NewFeatureServer creates a feature server over the namespaces of registry
func NewFeatureServer(registry *resolver.Registry, logger *logrus.Logger) *FeatureServer {
	return &FeatureServer{
		registry: registry,
		resolver: resolver.New(registry, resolver.WithLogger(logger)),
		hydrator: evidence.NewHydrator(evidence.WithLogger(logger)),
		logger:   logger,
	}
}

// FeatureResult is the response of the extract_features tool
type FeatureResult struct {
	Tokens  []string       `json:"tokens"`
	PosTags []string       `json:"postags"`
	Values  map[string]any `json:"values"`
}

func RegisterFeatureTools(s *server.MCPServer, fs *FeatureServer) {
	listTool := mcp.NewTool("list_features",
		mcp.WithDescription("List the feature specs that can be extracted, grouped by namespace"),
	)
	s.AddTool(listTool, fs.listHandler)

	extractTool := mcp.NewTool("extract_features",
		mcp.WithDescription(`Compute relation features for one evidence.
The evidence is written as markup: entity occurrences are {surface|kind}, '*' after the kind marks the left operand and '**' the right one.
Example: "Drinking {Mate|thing*} makes you go to the {toilet|thing**}"`),
		mcp.WithString("markup", mcp.Required(), mcp.Description("Evidence markup")),
		mcp.WithString("features", mcp.Required(), mcp.Description("Whitespace separated feature specs, e.g. 'bag_of_words entity_distance'")),
		mcp.WithString("postags", mcp.Description("Optional whitespace separated POS tags, one per token. Tagged automatically when empty")),
	)
	s.AddTool(extractTool, fs.extractHandler)
}

func (fs *FeatureServer) listHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, path := range fs.registry.Paths() {
		ns, err := fs.registry.Lookup(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sb.WriteString(fmt.Sprintf("%s:\n", path))
		for _, name := range ns.Names() {
			sb.WriteString(fmt.Sprintf("- %s.%s\n", path, name))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (fs *FeatureServer) extractHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arguments := request.Params.Arguments

	markup, ok := arguments["markup"].(string)
	if !ok {
		return mcp.NewToolResultError("markup must be a string"), nil
	}
	featureBlock, ok := arguments["features"].(string)
	if !ok {
		return mcp.NewToolResultError("features must be a string"), nil
	}
	specs := config.ParseFeatureList(featureBlock)
	if len(specs) == 0 {
		return mcp.NewToolResultError("no features requested"), nil
	}
	postags, _ := arguments["postags"].(string)

	ev, err := fs.hydrator.Hydrate(evidence.Record{
		ID:      "mcp",
		Markup:  markup,
		PosTags: strings.Fields(postags),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid markup: %v", err)), nil
	}

	features, err := fs.resolver.Resolve(specs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve features: %v", err)), nil
	}

	row, err := pipeline.NewExtractor(features, pipeline.WithLogger(fs.logger)).ExtractOne(ev)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract features: %v", err)), nil
	}

	result := FeatureResult{
		Tokens:  ev.Segment.Tokens,
		PosTags: ev.Segment.PosTags,
		Values:  make(map[string]any, len(specs)),
	}
	for i, spec := range specs {
		if n, ok := pipeline.Number(row.Values[i]); ok {
			result.Values[spec] = n
		} else if items, ok := pipeline.Items(row.Values[i]); ok {
			result.Values[spec] = items
		} else {
			result.Values[spec] = fmt.Sprint(row.Values[i])
		}
	}

	jsonResponse, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonResponse)), nil
}
