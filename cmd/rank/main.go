// Command rank runs the printer ranking offline against a request document
// read from disk or stdin, and prints the winner or the full ranking.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/onnwee/spk/internal/printer"
	"github.com/onnwee/spk/internal/ranking"
	"github.com/onnwee/spk/internal/topsis"
	"github.com/onnwee/spk/internal/validation"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "rank",
		Usage:     "Rank candidate printers for a find-printer request",
		Version:   version,
		ArgsUsage: "<request.json|request.yaml|->",
		Description: `Reads a find-printer request (JSON or YAML; "-" reads JSON from stdin),
validates it like the API does, and prints the best printer.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format: table, json",
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Print every printer in rank order, not just the winner",
			},
			&cli.BoolFlag{
				Name:    "explain",
				Aliases: []string{"e"},
				Usage:   "Print weights, ideal solutions and distances",
			},
			&cli.StringFlag{
				Name:    "calibration",
				Aliases: []string{"c"},
				Usage:   "Path to a ranking calibration file",
				EnvVars: []string{"RANKING_CALIBRATION_PATH"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Action: rankAction,
	}
}

func rankAction(c *cli.Context) error {
	format := c.String("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one request file argument")
	}

	data, err := readRequest(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}

	req, err := validation.ParseFindRequest(data)
	if err != nil {
		var ve *validation.Error
		if errors.As(err, &ve) {
			for _, d := range ve.Details {
				fmt.Fprintln(c.App.ErrWriter, "  "+d)
			}
		}
		return err
	}

	tieBreak, err := ranking.LoadCalibration(c.String("calibration"))
	if err != nil {
		return err
	}

	ranked, analysis, err := printer.NewService(tieBreak, nil).RankPrinters(c.Context, req)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if format == "json" {
		return writeJSON(out, req, ranked, analysis, c.Bool("all"), c.Bool("explain"))
	}

	colored := !c.Bool("no-color") && !color.NoColor
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No printers to rank.")
		return nil
	}
	shown := ranked
	if !c.Bool("all") {
		shown = ranked[:1]
	}
	writeRankingTable(out, req, shown, colored)
	if c.Bool("explain") {
		writeExplanation(out, req, analysis, colored)
	}
	return nil
}

// readRequest returns the request as JSON. YAML files are converted; "-"
// reads JSON from in.
func readRequest(path string, in io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML request: %w", err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML request: %w", err)
		}
	}
	return data, nil
}

// explanation is the JSON form of the intermediate ranking stages.
type explanation struct {
	Criteria []criterionStage   `json:"criteria"`
	Printers []alternativeStage `json:"printers"`
}

type criterionStage struct {
	Title     string  `json:"title"`
	Objective string  `json:"objective"`
	Weight    float64 `json:"weight"`
	Ideal     float64 `json:"ideal"`
	AntiIdeal float64 `json:"anti_ideal"`
}

type alternativeStage struct {
	ID      int64   `json:"id"`
	ToIdeal float64 `json:"to_ideal"`
	ToAnti  float64 `json:"to_anti"`
	Score   float64 `json:"score"`
}

func explain(req *printer.FindRequest, a *topsis.Analysis) explanation {
	e := explanation{
		Criteria: make([]criterionStage, len(req.Headers)),
		Printers: make([]alternativeStage, len(req.Printers)),
	}
	for j, h := range req.Headers {
		e.Criteria[j] = criterionStage{
			Title:     h.Title,
			Objective: string(a.Objectives[j]),
			Weight:    a.Weights[j],
		}
		if len(a.Ideal) > j {
			e.Criteria[j].Ideal = a.Ideal[j]
			e.Criteria[j].AntiIdeal = a.AntiIdeal[j]
		}
	}
	for i, p := range req.Printers {
		e.Printers[i] = alternativeStage{
			ID:      p.ID(),
			ToIdeal: a.ToIdeal[i],
			ToAnti:  a.ToAnti[i],
			Score:   a.Scores[i],
		}
	}
	return e
}

func writeJSON(w io.Writer, req *printer.FindRequest, ranked []printer.Selection, a *topsis.Analysis, all, withExplain bool) error {
	out := map[string]any{}
	switch {
	case all:
		out["data"] = ranked
	case len(ranked) == 0:
		out["data"] = struct{}{}
	default:
		out["data"] = ranked[0]
	}
	if withExplain {
		out["analysis"] = explain(req, a)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
}

func writeTitle(w io.Writer, title string, colored bool) {
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)
}

func writeRankingTable(w io.Writer, req *printer.FindRequest, ranked []printer.Selection, colored bool) {
	writeTitle(w, "Printer Ranking", colored)

	headers := []string{"rank", "id"}
	for _, h := range req.Headers {
		headers = append(headers, h.Title)
	}
	headers = append(headers, "score")

	table := newTable(w)
	table.Header(headers)
	for _, s := range ranked {
		row := []string{strconv.Itoa(s.Rank), strconv.FormatInt(s.Printer.ID(), 10)}
		for _, h := range req.Headers {
			row = append(row, fmt.Sprint(s.Printer[h.Title]))
		}
		score := formatFloat(s.Score)
		if colored && s.Rank == 1 {
			score = color.GreenString(score)
		}
		row = append(row, score)
		table.Append(row)
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeExplanation(w io.Writer, req *printer.FindRequest, a *topsis.Analysis, colored bool) {
	e := explain(req, a)

	writeTitle(w, "Criteria", colored)
	table := newTable(w)
	table.Header([]string{"title", "objective", "weight", "ideal", "anti-ideal"})
	for _, c := range e.Criteria {
		table.Append([]string{c.Title, c.Objective, formatFloat(c.Weight), formatFloat(c.Ideal), formatFloat(c.AntiIdeal)})
	}
	table.Render()
	fmt.Fprintln(w)

	writeTitle(w, "Distances", colored)
	table = newTable(w)
	table.Header([]string{"id", "to ideal", "to anti-ideal", "score"})
	for _, p := range e.Printers {
		table.Append([]string{strconv.FormatInt(p.ID, 10), formatFloat(p.ToIdeal), formatFloat(p.ToAnti), formatFloat(p.Score)})
	}
	table.Render()
	fmt.Fprintln(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
