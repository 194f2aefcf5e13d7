package api

// JSON schemas for the wire types, served by GET /schema. Kept in sync by
// hand with the tagged structs in models.go and the diffraction package.

type schemaObject = map[string]interface{}

var detectionSchema = schemaObject{
	"type": "object",
	"properties": schemaObject{
		"min_height":     schemaObject{"type": "number", "description": "Minimum peak height as a fraction of the data maximum"},
		"min_prominence": schemaObject{"type": "number", "default": 0.01, "description": "Minimum prominence as a fraction of the intensity range"},
		"min_distance":   schemaObject{"type": "number", "default": 0.1, "description": "Minimum peak separation in Q units"},
		"min_width":      schemaObject{"type": "number", "description": "Minimum peak width in Q units"},
		"max_width":      schemaObject{"type": "number", "description": "Maximum peak width in Q units"},
	},
}

var fittingSchema = schemaObject{
	"type": "object",
	"properties": schemaObject{
		"profile_type": schemaObject{
			"type":    "string",
			"enum":    []string{"gaussian", "lorentzian", "voigt", "pseudo_voigt"},
			"default": "gaussian",
		},
		"background_type": schemaObject{
			"type":    "string",
			"enum":    []string{"none", "linear", "polynomial", "chebyshev", "spline"},
			"default": "linear",
		},
		"background_order": schemaObject{"type": "integer", "minimum": 0, "maximum": 10, "default": 1},
		"max_iterations":   schemaObject{"type": "integer", "minimum": 1, "maximum": 10000, "default": 1000},
		"tolerance":        schemaObject{"type": "number", "exclusiveMinimum": 0, "default": 1e-6},
	},
}

var configSchema = schemaObject{
	"type": "object",
	"properties": schemaObject{
		"detection":         detectionSchema,
		"fitting":           fittingSchema,
		"quality_threshold": schemaObject{"type": "number", "minimum": 0, "maximum": 1, "default": 0.95},
	},
}

var requestSchema = schemaObject{
	"type":     "object",
	"required": []string{"data"},
	"properties": schemaObject{
		"data": schemaObject{
			"type":     "object",
			"required": []string{"q_values", "intensities"},
			"properties": schemaObject{
				"q_values":    schemaObject{"type": "array", "items": schemaObject{"type": "number"}, "minItems": minAnalysisPoints},
				"intensities": schemaObject{"type": "array", "items": schemaObject{"type": "number"}, "minItems": minAnalysisPoints},
				"filename":    schemaObject{"type": "string"},
				"sample_name": schemaObject{"type": "string"},
			},
		},
		"config":     configSchema,
		"request_id": schemaObject{"type": "string"},
	},
}

var responseSchema = schemaObject{
	"type": "object",
	"properties": schemaObject{
		"request_id": schemaObject{"type": "string"},
		"peaks": schemaObject{
			"type": "array",
			"items": schemaObject{
				"type": "object",
				"properties": schemaObject{
					"peak_id":      schemaObject{"type": "integer"},
					"position":     schemaObject{"type": "number", "description": "Peak center in inverse Angstroms"},
					"height":       schemaObject{"type": "number"},
					"width":        schemaObject{"type": "number", "description": "FWHM in inverse Angstroms"},
					"area":         schemaObject{"type": "number"},
					"d_spacing":    schemaObject{"type": "number", "description": "2*pi/position in Angstroms"},
					"profile_type": schemaObject{"type": "string"},
					"r_squared":    schemaObject{"type": "number"},
				},
			},
		},
		"background": schemaObject{
			"type": "object",
			"properties": schemaObject{
				"background_type":   schemaObject{"type": "string"},
				"parameters":        schemaObject{"type": "array", "items": schemaObject{"type": "number"}},
				"r_squared":         schemaObject{"type": "number"},
				"background_points": schemaObject{"type": "array", "items": schemaObject{"type": "number"}},
			},
		},
		"metadata": schemaObject{
			"type": "object",
			"properties": schemaObject{
				"num_peaks_detected": schemaObject{"type": "integer"},
				"num_peaks_fitted":   schemaObject{"type": "integer"},
				"overall_r_squared":  schemaObject{"type": "number"},
				"processing_time_ms": schemaObject{"type": "number"},
				"warnings":           schemaObject{"type": "array", "items": schemaObject{"type": "string"}},
				"success":            schemaObject{"type": "boolean"},
			},
		},
		"processed_data": schemaObject{
			"type":        "object",
			"description": "Background-subtracted pattern, Q sorted ascending",
			"properties": schemaObject{
				"q_values":    schemaObject{"type": "array", "items": schemaObject{"type": "number"}},
				"intensities": schemaObject{"type": "array", "items": schemaObject{"type": "number"}},
				"filename":    schemaObject{"type": "string"},
				"sample_name": schemaObject{"type": "string"},
			},
		},
	},
}

var errorSchema = schemaObject{
	"type": "object",
	"properties": schemaObject{
		"error_type": schemaObject{"type": "string"},
		"message":    schemaObject{"type": "string"},
		"request_id": schemaObject{"type": "string"},
	},
}

var schemaPayload = schemaObject{
	"request_schema":  requestSchema,
	"response_schema": responseSchema,
	"config_schema":   configSchema,
	"error_schema":    errorSchema,
}
