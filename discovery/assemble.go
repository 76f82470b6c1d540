package discovery

import "github.com/vitalvas/svcdoc/swagger"

// Assemble creates one document per record and applies settings to
// each. Settings never replace computed paths or definitions.
func Assemble(records []*Record, settings swagger.Settings) []*swagger.Document {
	docs := make([]*swagger.Document, 0, len(records))
	for _, rec := range records {
		doc := swagger.NewDocument()
		doc.Name = rec.Service.Name
		doc.Key = typeKey(rec.Service.Type)
		doc.Paths = rec.Paths
		doc.Definitions = rec.Definitions

		swagger.ApplySettings(doc, settings)
		docs = append(docs, doc)
	}
	return docs
}

// BuildAll runs discovery, mapping and assembly over src. The returned
// documents are complete even when err is non-nil; err only lists the
// services that were left out.
func BuildAll(src Source, opts Options) ([]*swagger.Document, error) {
	records, err := NewScanner(src, opts).Discover()
	return Assemble(records, opts.Settings), err
}
