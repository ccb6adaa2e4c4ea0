package constants

// EntityLabel is the label an entity model attaches to a text span.
type EntityLabel string

// Labels emitted by the BC5CDR biomedical NER models.
const (
	LabelChemical EntityLabel = "CHEMICAL"
	LabelDisease  EntityLabel = "DISEASE"
)

// NotFound is the patient name reported when no label matches.
const NotFound = "Not Found"
