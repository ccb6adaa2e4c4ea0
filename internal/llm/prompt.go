package llm

// System and user prompts for the vision record extractor.
const (
	VisionSystemPrompt = "You are a medical prescription parser. Extract all relevant information " +
		"from the prescription image and return it in structured JSON format."

	VisionUserPrompt = "Extract all information from this medical prescription including patient name, " +
		"age, doctor name, date, diagnosis, medications (name, dosage, frequency, duration), " +
		"and any special instructions."
)
