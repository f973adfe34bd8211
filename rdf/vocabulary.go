package rdf

const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	FNNamespace  = "http://www.w3.org/2005/xpath-functions#"
)

const (
	XSDString             IRI = XSDNamespace + "string"
	XSDBoolean            IRI = XSDNamespace + "boolean"
	XSDInteger            IRI = XSDNamespace + "integer"
	XSDDecimal            IRI = XSDNamespace + "decimal"
	XSDDouble             IRI = XSDNamespace + "double"
	XSDFloat              IRI = XSDNamespace + "float"
	XSDLong               IRI = XSDNamespace + "long"
	XSDInt                IRI = XSDNamespace + "int"
	XSDShort              IRI = XSDNamespace + "short"
	XSDByte               IRI = XSDNamespace + "byte"
	XSDNonNegativeInteger IRI = XSDNamespace + "nonNegativeInteger"
	XSDPositiveInteger    IRI = XSDNamespace + "positiveInteger"
	XSDNegativeInteger    IRI = XSDNamespace + "negativeInteger"
	XSDNonPositiveInteger IRI = XSDNamespace + "nonPositiveInteger"
	XSDUnsignedLong       IRI = XSDNamespace + "unsignedLong"
	XSDUnsignedInt        IRI = XSDNamespace + "unsignedInt"
	XSDDateTime           IRI = XSDNamespace + "dateTime"

	RDFLangString IRI = RDFNamespace + "langString"
	RDFType       IRI = RDFNamespace + "type"
)

var integerTypes = map[IRI]bool{
	XSDInteger:            true,
	XSDLong:               true,
	XSDInt:                true,
	XSDShort:              true,
	XSDByte:               true,
	XSDNonNegativeInteger: true,
	XSDPositiveInteger:    true,
	XSDNegativeInteger:    true,
	XSDNonPositiveInteger: true,
	XSDUnsignedLong:       true,
	XSDUnsignedInt:        true,
}

var numericTypes = map[IRI]bool{
	XSDDecimal: true,
	XSDDouble:  true,
	XSDFloat:   true,
}

func init() {
	for dt := range integerTypes {
		numericTypes[dt] = true
	}
}

// IsIntegerType reports whether dt is xsd:integer or one of its derived types.
func IsIntegerType(dt IRI) bool { return integerTypes[dt] }

// IsNumericType reports whether dt is one of the XSD numeric datatypes.
func IsNumericType(dt IRI) bool { return numericTypes[dt] }
