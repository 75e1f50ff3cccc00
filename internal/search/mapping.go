package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for media documents.
//
// Titles and synopses get English stemming. Media type, external id and
// status are keywords so they can be used as exact filters and facets.
// Year and released are numeric for range queries.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Not stored (too large)
	synopsisFieldMapping := bleve.NewTextFieldMapping()
	synopsisFieldMapping.Analyzer = en.AnalyzerName
	synopsisFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("synopsis", synopsisFieldMapping)

	// --- Keyword fields ---

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("media_type", typeFieldMapping)

	externalIDFieldMapping := bleve.NewTextFieldMapping()
	externalIDFieldMapping.Analyzer = keyword.Name
	externalIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("external_id", externalIDFieldMapping)

	statusFieldMapping := bleve.NewTextFieldMapping()
	statusFieldMapping.Analyzer = keyword.Name
	statusFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("status", statusFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// --- Numeric fields ---

	yearFieldMapping := bleve.NewNumericFieldMapping()
	yearFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("year", yearFieldMapping)

	releasedFieldMapping := bleve.NewNumericFieldMapping()
	releasedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("released", releasedFieldMapping)

	refreshedFieldMapping := bleve.NewNumericFieldMapping()
	refreshedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("refreshed_at", refreshedFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
