// Package vocab holds the standard vocabulary IRIs used by authority
// configurations and the default prefix dictionary for path expressions.
package vocab

// Namespaces.
const (
	RDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS     = "http://www.w3.org/2000/01/rdf-schema#"
	XSD      = "http://www.w3.org/2001/XMLSchema#"
	OWL      = "http://www.w3.org/2002/07/owl#"
	SKOS     = "http://www.w3.org/2004/02/skos/core#"
	SKOSXL   = "http://www.w3.org/2008/05/skos-xl#"
	DCTerms  = "http://purl.org/dc/terms/"
	FOAF     = "http://xmlns.com/foaf/0.1/"
	Schema   = "http://schema.org/"
	MADS     = "http://www.loc.gov/mads/rdf/v1#"
	VIVO     = "http://vivoweb.org/ontology/core#"
	GVP      = "http://vocab.getty.edu/ontology#"
	GeoNames = "http://www.geonames.org/ontology#"
)

// Frequently configured predicates.
const (
	RDFType        = RDF + "type"
	RDFSLabel      = RDFS + "label"
	SkosPrefLabel  = SKOS + "prefLabel"
	SkosAltLabel   = SKOS + "altLabel"
	SkosBroader    = SKOS + "broader"
	SkosNarrower   = SKOS + "narrower"
	SkosExactMatch = SKOS + "exactMatch"
	OwlSameAs      = OWL + "sameAs"
	DCTermsID      = DCTerms + "identifier"

	MADSAuthoritativeLabel = MADS + "authoritativeLabel"
	MADSVariantLabel       = MADS + "variantLabel"
	MADSHasVariant         = MADS + "hasVariant"
	MADSHasBroader         = MADS + "hasBroaderAuthority"
	MADSHasNarrower        = MADS + "hasNarrowerAuthority"
)

// XSD datatypes recognised by path-expression type coercion.
const (
	XSDString  = XSD + "string"
	XSDAnyURI  = XSD + "anyURI"
	XSDInteger = XSD + "integer"
	XSDInt     = XSD + "int"
	XSDLong    = XSD + "long"
	XSDDecimal = XSD + "decimal"
	XSDDouble  = XSD + "double"
	XSDFloat   = XSD + "float"
	XSDBoolean = XSD + "boolean"
)

var defaultPrefixes = map[string]string{
	"rdf":     RDF,
	"rdfs":    RDFS,
	"xsd":     XSD,
	"owl":     OWL,
	"skos":    SKOS,
	"skosxl":  SKOSXL,
	"dcterms": DCTerms,
	"foaf":    FOAF,
	"schema":  Schema,
	"madsrdf": MADS,
	"vivo":    VIVO,
	"gvp":     GVP,
	"gn":      GeoNames,
}

// DefaultPrefixes returns a fresh copy of the built-in prefix dictionary.
func DefaultPrefixes() map[string]string {
	out := make(map[string]string, len(defaultPrefixes))
	for k, v := range defaultPrefixes {
		out[k] = v
	}
	return out
}

// Prefixes layers extra over the built-in dictionary. Entries in extra win.
func Prefixes(extra map[string]string) map[string]string {
	out := DefaultPrefixes()
	for k, v := range extra {
		out[k] = v
	}
	return out
}
