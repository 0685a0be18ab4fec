package carrierconfig

// defaultConfigs seeds the store with the one carrier the system ships
// knowing about. Further carriers are added through the admin API.
func defaultConfigs() map[string]*Config {
	return map[string]*Config{
		"Manhattan Life": {
			FileTypes: []FileType{
				{
					Name:              "commission",
					Template:          "Policy And Transactions Template (13).csv",
					IdentifierColumns: []string{"Record Type", "Group No.", "Policy", "Owner Name"},
					Description:       "Commission statement file",
				},
				{
					Name:              "chargeback",
					Template:          "Commission Chargebacks Template (10).csv",
					IdentifierColumns: []string{"Policy Owner Name", "Policy Number", "# of Days Lapsed"},
					Description:       "Chargeback/lapse report",
				},
			},
			Lookups: map[string]map[string]string{
				"plan_to_product_type": {
					"DVH SELECT $5,000 POL MAX WITH $100 DEDUCT":   "Dental with Vision",
					"DVH SELECT $5,000 POL MAX WITH $0 DEDUCT":     "Dental with Vision",
					"DVH SELECT $3,000 POL MAX WITH $0 DEDUCT":     "Dental with Vision",
					"DVH SELECT $3,000 POL MAX WITH $100 DEDUCT":   "Dental with Vision",
					"DVH SELECT $1,500 POL MAX WITH $0 DEDUCT":     "Dental with Vision",
					"DVH SELECT $1,500 POL MAX WITH $100 DEDUCT":   "Dental with Vision",
					"DVH SELECT $1,000 POL MAX WITH $0 DEDUCT":     "Dental with Vision",
					"DVH SELECT $1,000 POL MAX WITH $100 DEDUCT":   "Dental with Vision",
					"DVH REFRESH, GENERIC PLAN, $1,000 PY MAX":     "Dental with Vision",
					"DVH REFRESH, GENERIC PLAN, $1,500 PY MAX":     "Dental with Vision",
					"DVH REFRESH, GENERIC PLAN, $3,000 PY MAX":     "Dental with Vision",
					"DVH REFRESH, GENERIC PLAN, $5,000 PY MAX":     "Dental with Vision",
					"DENTAL/VISION/HEARING  $1500 POL MAX":         "Dental with Vision",
					"PAID ENHANCED - 24 HR ACC POLICY 2 UNITS":     "Accident",
					"PAID ENHANCED - 24 HR ACC POLICY 2 UNIT":      "Accident",
					"PAID ENHANCED - 24 HR ACC POLICY 1 UNIT":      "Accident",
					"PAID ENHANCED - NON-OCC ACCIDENT 2 UNITS":     "Accident",
					"MIAC 24 HR ACCIDENT EXPENSE FL":               "Accident",
					"2013 OFF THE JOB ACCIDENT EXPENSE":            "Accident",
					"AFFORDABLE CHOICE ENHANCED ELITE PLUS":        "Fixed Indemnity",
					"AFFORDABLE CHOICE ENHANCED ELITE":             "Fixed Indemnity",
					"AFFORDABLE CHOICE ENHANCED CLASSIC PLUS":      "Fixed Indemnity",
					"AFFORDABLE CHOICE ENHANCED CLASSIC":           "Fixed Indemnity",
					"HOSPITAL INDEMNITY SELECT":                    "Hospital Indemnity",
					"LUMP SUM CANCER":                              "Critical Illness",
					"LUMP SUM HEART ATTACK AND STROKE":             "Critical Illness",
					"CRITICAL PROTECTION & RECOVERY W/ CANCER (B)": "Critical Illness",
				},
				"plan_to_plan_name": {
					"DVH SELECT $5,000 POL MAX WITH $100 DEDUCT":   "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $5,000 POL MAX WITH $0 DEDUCT":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $3,000 POL MAX WITH $0 DEDUCT":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $3,000 POL MAX WITH $100 DEDUCT":   "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $1,500 POL MAX WITH $0 DEDUCT":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $1,500 POL MAX WITH $100 DEDUCT":   "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $1,000 POL MAX WITH $0 DEDUCT":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH SELECT $1,000 POL MAX WITH $100 DEDUCT":   "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH REFRESH, GENERIC PLAN, $1,000 PY MAX":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH REFRESH, GENERIC PLAN, $1,500 PY MAX":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH REFRESH, GENERIC PLAN, $3,000 PY MAX":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DVH REFRESH, GENERIC PLAN, $5,000 PY MAX":     "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"DENTAL/VISION/HEARING  $1500 POL MAX":         "Dental, Vision, Hearing & Dental, Vision, Hearing Select ",
					"PAID ENHANCED - 24 HR ACC POLICY 2 UNITS":     "PAID Personal Accident & DI Rider, and Accident Express ",
					"PAID ENHANCED - 24 HR ACC POLICY 2 UNIT":      "PAID Personal Accident & DI Rider, and Accident Express ",
					"PAID ENHANCED - 24 HR ACC POLICY 1 UNIT":      "PAID Personal Accident & DI Rider, and Accident Express ",
					"PAID ENHANCED - NON-OCC ACCIDENT 2 UNITS":     "PAID Personal Accident & DI Rider, and Accident Express ",
					"MIAC 24 HR ACCIDENT EXPENSE FL":               "PAID Personal Accident & DI Rider, and Accident Express",
					"2013 OFF THE JOB ACCIDENT EXPENSE":            "PAID Personal Accident & DI Rider, and Accident Express",
					"AFFORDABLE CHOICE ENHANCED ELITE PLUS":        "Affordable Choice",
					"AFFORDABLE CHOICE ENHANCED ELITE":             "Affordable Choice",
					"AFFORDABLE CHOICE ENHANCED CLASSIC PLUS":      "Affordable Choice",
					"AFFORDABLE CHOICE ENHANCED CLASSIC":           "Affordable Choice",
					"HOSPITAL INDEMNITY SELECT":                    "Hospital Indemnity Select 18-64.5",
					"LUMP SUM CANCER":                              "Cancer, Heart Attack, Stroke",
					"LUMP SUM HEART ATTACK AND STROKE":             "Cancer, Heart Attack, Stroke",
					"CRITICAL PROTECTION & RECOVERY W/ CANCER (B)": "Critical Protection CPR-Critical Illness",
				},
			},
		},
	}
}
