package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sq80edit/sq80"
)

func newMCPServer(ed *Editor, cfg Config) *server.MCPServer {
	s := server.NewMCPServer(
		"SQ-80 MCP",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	describeTool := mcp.NewTool("sq80_describe-parameters",
		mcp.WithDescription("Returns the SQ-80 parameter table: names, ranges and value labels. Optionally limited to one group."),
		mcp.WithString("group", mcp.Description("A group such as env1, lfo2, osc3, dca1, amp, filter or modes.")),
	)
	s.AddTool(describeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling describe parameters request.")

		ds := sq80.Descriptors()
		if group := request.GetString("group", ""); group != "" {
			ds = sq80.GroupDescriptors(group)
			if len(ds) == 0 {
				return mcp.NewToolResultError(fmt.Sprintf("unknown group %q", group)), nil
			}
		}
		return jsonResult(ds)
	})

	listTool := mcp.NewTool("sq80_list-patches",
		mcp.WithDescription("Lists the open patches in name order and marks the active one."),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling list patches request.")

		type entry struct {
			Name   string `json:"name"`
			Type   string `json:"type"`
			Origin string `json:"origin,omitempty"`
			Active bool   `json:"active"`
		}
		active := ed.Active()
		entries := []entry{}
		for _, p := range ed.Patches() {
			entries = append(entries, entry{Name: p.Name, Type: p.Type, Origin: p.Origin, Active: p == active})
		}
		return jsonResult(entries)
	})

	newTool := mcp.NewTool("sq80_new-patch",
		mcp.WithDescription("Creates a patch with default values and makes it active."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The patch name.")),
		mcp.WithString("type", mcp.Description("A free-form category such as Bass or Pad.")),
	)
	s.AddTool(newTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling new patch request.")

		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p, err := ed.NewPatch(name, request.GetString("type", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(p.Snapshot())
	})

	openTool := mcp.NewTool("sq80_open-patch",
		mcp.WithDescription("Loads a patch file and makes it active."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the patch file.")),
	)
	s.AddTool(openTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling open patch request.")

		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p, err := ed.Open(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(p.Snapshot())
	})

	saveTool := mcp.NewTool("sq80_save-patch",
		mcp.WithDescription("Writes the active patch. Without a path the file it was loaded from is overwritten."),
		mcp.WithString("path", mcp.Description("Destination file.")),
	)
	s.AddTool(saveTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling save patch request.")

		path, err := ed.Save(request.GetString("path", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved to %s.", path)), nil
	})

	closeTool := mcp.NewTool("sq80_close-patch",
		mcp.WithDescription("Closes an open patch without saving it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The patch name.")),
	)
	s.AddTool(closeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling close patch request.")

		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ed.Close(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Patch closed."), nil
	})

	selectTool := mcp.NewTool("sq80_select-patch",
		mcp.WithDescription("Makes an open patch the active one."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The patch name.")),
	)
	s.AddTool(selectTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling select patch request.")

		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p, err := ed.Select(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(p.Snapshot())
	})

	getTool := mcp.NewTool("sq80_get-patch",
		mcp.WithDescription("Returns the active patch with every parameter decoded."),
	)
	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling get patch request.")

		p := ed.Active()
		if p == nil {
			return mcp.NewToolResultError(ErrNoActivePatch.Error()), nil
		}
		return jsonResult(p.Snapshot())
	})

	setTool := mcp.NewTool("sq80_set-parameter",
		mcp.WithDescription("Sets one parameter of the active patch and sends it to the SQ-80."),
		mcp.WithString("parameter", mcp.Required(), mcp.Description("Parameter name such as filter.frequency or osc2.mod1_src.")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("The value within the parameter's range. Selectors take the entry index.")),
	)
	s.AddTool(setTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("parameter")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		value, err := request.RequireInt("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		log.Println("[mcp] Setting parameter", name, "to", value)

		edit, err := ed.SetParameter(name, value)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s set to %d (NRPN %d = %d).", name, value, edit.Parameter, edit.Value)), nil
	})

	randomTool := mcp.NewTool("sq80_randomize-group",
		mcp.WithDescription("Sets every parameter of one group of the active patch to a random value and sends them."),
		mcp.WithString("group", mcp.Required(), mcp.Description("A group such as osc1 or lfo2.")),
	)
	s.AddTool(randomTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling randomize request.")

		group, err := request.RequireString("group")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := ed.Randomize(group, nil); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(ed.Active().Snapshot())
	})

	sendTool := mcp.NewTool("sq80_send-patch",
		mcp.WithDescription("Sends every parameter of the active patch to the SQ-80."),
	)
	s.AddTool(sendTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling send patch request.")

		if err := ed.SendPatch(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Patch sent successfully."), nil
	})

	playTool := mcp.NewTool("sq80_play-note",
		mcp.WithDescription("Selects a program and plays a test note, or a phrase of notes such as \"C4 E4 G4 r C5\"."),
		mcp.WithNumber("bank", mcp.Description("Program bank, 0-2.")),
		mcp.WithNumber("program", mcp.Description("Program number within the bank, 1-40.")),
		mcp.WithString("notes", mcp.Description("Note names separated by spaces; r is a rest.")),
	)
	s.AddTool(playTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Println("[mcp] Handling play request.")

		play := cfg
		play.Bank = request.GetInt("bank", cfg.Bank)
		play.Program = request.GetInt("program", cfg.Program)
		if err := play.Validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if notes := request.GetString("notes", ""); notes != "" {
			if err := ed.Gateway().ProgramChange(ed.Channel(), ProgramNumber(play.Bank, play.Program)); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			pl := newPlayer(ed.Gateway(), ed.Channel(), uint8(play.Velocity))
			if err := pl.playNotesFromText(notes); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText("Notes played successfully."), nil
		}

		note, _, _ := parseNoteToken(play.Note)
		if err := ed.Play(ProgramNumber(play.Bank, play.Program), note, uint8(play.Velocity), time.Second); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Test note played successfully."), nil
	})

	return s
}

func runMCP(ed *Editor, cfg Config) {
	s := newMCPServer(ed, cfg)

	log.Println("Starting SQ-80 MCP server...")

	if err := server.ServeStdio(s); err != nil {
		log.Printf("Server error: %v\n", err)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	asJson, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result to JSON: %v", err)
	}
	return mcp.NewToolResultText(string(asJson)), nil
}
