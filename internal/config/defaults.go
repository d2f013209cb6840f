package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Generation.Backend == "" {
		cfg.Generation.Backend = "rest"
	}
	if cfg.Generation.Endpoint == "" {
		cfg.Generation.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemini-1.5-flash"
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Extract.SampleRows == 0 {
		cfg.Extract.SampleRows = 10
	}
	if cfg.Extract.SampleParagraphs == 0 {
		cfg.Extract.SampleParagraphs = 10
	}
	if cfg.Extract.DocxStrategy == "" {
		cfg.Extract.DocxStrategy = "all"
	}
	if cfg.Extract.SnippetParts == 0 {
		cfg.Extract.SnippetParts = 3
	}
	if cfg.Extract.MinPDFText == 0 {
		cfg.Extract.MinPDFText = 100
	}
	if cfg.Extract.MaxFileSize == 0 {
		cfg.Extract.MaxFileSize = 100 * 1024 * 1024
	}
	if cfg.Extract.OCR.Engine == "" {
		cfg.Extract.OCR.Engine = "tesseract"
	}
	if cfg.Extract.OCR.Command == "" {
		cfg.Extract.OCR.Command = "tesseract"
	}
	if cfg.Extract.OCR.Languages == "" {
		cfg.Extract.OCR.Languages = "ind+eng"
	}
	if cfg.Output.Footer == "" {
		cfg.Output.Footer = "Dibuat oleh DataWizard"
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = "/usr/local/var/datawizard/history.db"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8085
	}
	if cfg.Watch.Format == "" {
		cfg.Watch.Format = "word"
	}
	if cfg.Watch.Mode == "" {
		cfg.Watch.Mode = "file"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".xlsx", ".csv", ".docx", ".pdf", ".png", ".jpg", ".jpeg"}
	}
}
