package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// SearchEvidenceInput is the input schema for the search_evidence tool.
type SearchEvidenceInput struct {
	Query   string `json:"query" jsonschema:"free-text query to retrieve evidence for"`
	KDocs   int    `json:"k_docs,omitempty" jsonschema:"number of documentation chunks to retrieve (default 6)"`
	KMarkup int    `json:"k_markup,omitempty" jsonschema:"number of HTML markup chunks to retrieve (default 6)"`
}

// EvidenceOutput is one retrieved chunk with provenance.
type EvidenceOutput struct {
	SourceFilename string  `json:"source_filename"`
	SourceType     string  `json:"source_type"`
	SequenceIndex  int     `json:"sequence_index"`
	Score          float64 `json:"score"`
	Text           string  `json:"text"`
}

// SearchEvidenceOutput is the output schema for the search_evidence tool.
type SearchEvidenceOutput struct {
	SupportDocs []EvidenceOutput `json:"support_docs"`
	Markup      []EvidenceOutput `json:"markup"`
}

// GenerateTestCasesInput is the input schema for the generate_test_cases tool.
type GenerateTestCasesInput struct {
	Request string `json:"request" jsonschema:"free-text description of what to test, e.g. 'test the discount code feature'"`
}

// GenerateTestCasesOutput is the output schema for the generate_test_cases tool.
type GenerateTestCasesOutput struct {
	Viewpoints []string             `json:"viewpoints"`
	TestCases  []domain.TestCase    `json:"test_cases"`
	Dropped    []domain.DroppedCase `json:"dropped,omitempty"`
}

// GenerateScriptInput is the input schema for the generate_script tool.
type GenerateScriptInput struct {
	TestCaseID string `json:"test_case_id" jsonschema:"id of a test case from a previously generated plan, e.g. TC-001"`
}

// GenerateScriptOutput is the output schema for the generate_script tool.
type GenerateScriptOutput struct {
	TestCaseID      string   `json:"test_case_id"`
	Code            string   `json:"code"`
	Selectors       []string `json:"selectors"`
	SourceFilenames []string `json:"source_filenames"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_evidence",
		Description: "Retrieve the most relevant documentation and HTML markup chunks for a query",
	}, s.handleSearchEvidence)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_test_cases",
		Description: "Generate a grounded QA test plan (viewpoints and test cases) for a free-text request",
	}, s.handleGenerateTestCases)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_script",
		Description: "Generate a selector-validated Python Selenium script for a test case from the current plan",
	}, s.handleGenerateScript)
}

// handleSearchEvidence handles the search_evidence tool invocation.
func (s *Server) handleSearchEvidence(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchEvidenceInput,
) (*mcp.CallToolResult, SearchEvidenceOutput, error) {
	set, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.KDocs, input.KMarkup)
	if err != nil {
		return nil, SearchEvidenceOutput{}, toolError(err)
	}

	return nil, SearchEvidenceOutput{
		SupportDocs: evidenceOutputs(set.SupportDocs),
		Markup:      evidenceOutputs(set.Markup),
	}, nil
}

// handleGenerateTestCases handles the generate_test_cases tool invocation.
func (s *Server) handleGenerateTestCases(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateTestCasesInput,
) (*mcp.CallToolResult, GenerateTestCasesOutput, error) {
	plan, err := s.ports.Generation.GenerateTestCases(ctx, input.Request)
	if err != nil {
		return nil, GenerateTestCasesOutput{}, toolError(err)
	}

	viewpoints := make([]string, len(plan.Viewpoints))
	for i, vp := range plan.Viewpoints {
		viewpoints[i] = string(vp)
	}

	return nil, GenerateTestCasesOutput{
		Viewpoints: viewpoints,
		TestCases:  plan.TestCases,
		Dropped:    plan.Dropped,
	}, nil
}

// handleGenerateScript handles the generate_script tool invocation.
func (s *Server) handleGenerateScript(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateScriptInput,
) (*mcp.CallToolResult, GenerateScriptOutput, error) {
	script, err := s.ports.Script.GenerateScript(ctx, input.TestCaseID)
	if err != nil {
		return nil, GenerateScriptOutput{}, toolError(err)
	}

	return nil, GenerateScriptOutput{
		TestCaseID:      script.TestCaseID,
		Code:            script.Code,
		Selectors:       script.Selectors,
		SourceFilenames: script.SourceFilenames,
	}, nil
}

// evidenceOutputs converts domain evidence to the wire shape.
func evidenceOutputs(evidence []domain.Evidence) []EvidenceOutput {
	out := make([]EvidenceOutput, len(evidence))
	for i, ev := range evidence {
		out[i] = EvidenceOutput{
			SourceFilename: ev.Chunk.SourceFilename,
			SourceType:     string(ev.Chunk.SourceType),
			SequenceIndex:  ev.Chunk.SequenceIndex,
			Score:          ev.Score,
			Text:           ev.Chunk.Text,
		}
	}
	return out
}
