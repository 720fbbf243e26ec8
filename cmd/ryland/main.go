// Package main implements the ryland CLI for running note segment
// extraction and cohort alignment batches from exported JSON tables.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rheelab/ryland/internal/cohort"
	"github.com/rheelab/ryland/internal/config"
	"github.com/rheelab/ryland/internal/extract"
	"github.com/rheelab/ryland/internal/logging"
	"github.com/rheelab/ryland/internal/oncdrs"
	"github.com/rheelab/ryland/internal/pipeline"
)

var (
	configPath string
	outPath    string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ryland",
	Short: "Clinical note segment extraction and cohort alignment",
	Long: `ryland extracts keyword-delimited text segments from clinical notes
and aligns notes to patient treatment/diagnosis timelines for LLM
preprocessing.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML (optional)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "-", "output file, or - for stdout")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(cohortCmd)
}

var (
	notesPath      string
	category       string
	firstOnly      bool
	ofInterestOnly bool
)

// extractCmd runs extraction alone over an OncDRS note export.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text segments from an OncDRS note export",
	Long: `Extract keyword-delimited segments from every note in an
OncDRS-exported JSON file.

Examples:
  # Pathology notes with the embedded default mappings
  ryland extract --notes pathology.json --category pathology

  # Imaging notes, fuzzy proc-desc matching, custom mappings
  RYLAND_EXTRACTION_MATCH_MODE=fuzzy \
  ryland extract --notes imaging.json --category imaging --config site.yaml`,
	RunE: runExtract,
}

// cohortCmd runs the full alignment + extraction pipeline.
var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Align progress notes to treatment/diagnosis timelines and extract segments",
	Long: `Join the note, treatment, diagnosis and demographics tables, select
the notes nearest to each patient's diagnosis and treatment anchors,
and extract segments from the selected notes.

Examples:
  ryland cohort --notes notes.json --treatments tx.json \
    --diagnoses dx.json --patients info.json --config site.yaml -o rows.json`,
	RunE: runCohort,
}

var (
	treatmentsPath string
	diagnosesPath  string
	patientsPath   string
)

func init() {
	extractCmd.Flags().StringVar(&notesPath, "notes", "", "OncDRS note export JSON (required)")
	extractCmd.Flags().StringVar(&category, "category", string(extract.CategoryPathology), "note category: pathology, imaging or progress")
	extractCmd.Flags().BoolVar(&firstOnly, "first-only", false, "keep only the first segment per note")
	extractCmd.Flags().BoolVar(&ofInterestOnly, "of-interest-only", false, "keep only notes whose proc desc is in the category's of-interest list")
	_ = extractCmd.MarkFlagRequired("notes")

	cohortCmd.Flags().StringVar(&notesPath, "notes", "", "OncDRS progress note export JSON (required)")
	cohortCmd.Flags().StringVar(&treatmentsPath, "treatments", "", "treatment plan table JSON (required)")
	cohortCmd.Flags().StringVar(&diagnosesPath, "diagnoses", "", "diagnosis table JSON (required)")
	cohortCmd.Flags().StringVar(&patientsPath, "patients", "", "demographics table JSON (optional)")
	cohortCmd.Flags().BoolVar(&firstOnly, "first-only", false, "keep only the first segment per note")
	_ = cohortCmd.MarkFlagRequired("notes")
	_ = cohortCmd.MarkFlagRequired("treatments")
	_ = cohortCmd.MarkFlagRequired("diagnoses")
}

func setup() (*config.Config, *logging.Logger, *pipeline.Pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := pipeline.New(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, p, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, log, p, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	notes, err := oncdrs.Load(notesPath)
	if err != nil {
		return err
	}

	result, err := p.ExtractNotes(cmd.Context(), notes, pipeline.Options{
		Category:       extract.Category(category),
		FirstOnly:      firstOnly,
		OfInterestOnly: ofInterestOnly,
	})
	if err != nil {
		return err
	}
	return writeResult(result)
}

func runCohort(cmd *cobra.Command, args []string) error {
	_, log, p, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	notes, err := oncdrs.Load(notesPath)
	if err != nil {
		return err
	}

	in := pipeline.Inputs{Notes: notes}
	if err := loadTable(treatmentsPath, &in.Treatments, decodeTreatment); err != nil {
		return err
	}
	if err := loadTable(diagnosesPath, &in.Diagnoses, decodeDiagnosis); err != nil {
		return err
	}
	if patientsPath != "" {
		if err := loadTable(patientsPath, &in.Patients, decodePatient); err != nil {
			return err
		}
	}

	result, err := p.Run(cmd.Context(), in, pipeline.Options{
		Category:  extract.CategoryProgress,
		FirstOnly: firstOnly,
	})
	if err != nil {
		return err
	}
	return writeResult(result)
}

// Tabular inputs carry dates as freeform strings; decode through raw
// shapes and coerce the dates the same way the cohort engine does.

type rawTreatment struct {
	MRN                int64  `json:"DFCI_MRN"`
	StdChemoPlan       string `json:"STD_CHEMO_PLAN"`
	ResearchChemoPlan  string `json:"RESEARCH_CHEMO_PLAN"`
	OtherTreatmentPlan string `json:"OTHER_TREATMENT_PLAN"`
	PlanStartDate      string `json:"TPLAN_START_DT"`
}

type rawDiagnosis struct {
	MRN           int64  `json:"DFCI_MRN"`
	DiagnosisDate string `json:"DIAGNOSIS_DT"`
}

type rawPatient struct {
	MRN       int64  `json:"DFCI_MRN"`
	BirthDate string `json:"BIRTH_DT"`
	DeathDate string `json:"HYBRID_DEATH_DT"`
}

func decodeTreatment(r rawTreatment) cohort.Treatment {
	return cohort.Treatment{
		MRN:                r.MRN,
		StdChemoPlan:       r.StdChemoPlan,
		ResearchChemoPlan:  r.ResearchChemoPlan,
		OtherTreatmentPlan: r.OtherTreatmentPlan,
		PlanStartDate:      cohort.ParseDate(r.PlanStartDate),
	}
}

func decodeDiagnosis(r rawDiagnosis) cohort.Diagnosis {
	return cohort.Diagnosis{MRN: r.MRN, DiagnosisDate: cohort.ParseDate(r.DiagnosisDate)}
}

func decodePatient(r rawPatient) cohort.PatientInfo {
	return cohort.PatientInfo{
		MRN:       r.MRN,
		BirthDate: cohort.ParseDate(r.BirthDate),
		DeathDate: cohort.ParseDate(r.DeathDate),
	}
}

func loadTable[R, T any](path string, dst *[]T, decode func(R) T) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var raw []R
	if err := json.Unmarshal(content, &raw); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	for _, r := range raw {
		*dst = append(*dst, decode(r))
	}
	return nil
}

func writeResult(result *pipeline.Result) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || outPath == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(outPath, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
