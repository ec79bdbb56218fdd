// internal/devtools/rdp/actors.go
package rdp

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
)

// tabEntry is one tab in the listTabs reply. The actor fields are opaque
// handles minted by the server; they are only valid for this connection.
type tabEntry struct {
	Actor          string `json:"actor"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Selected       bool   `json:"selected"`
	ConsoleActor   string `json:"consoleActor"`
	InspectorActor string `json:"inspectorActor"`
}

// attach walks the actor chain: root lists its tabs, the selected tab
// names its console and inspector actors, and the inspector hands out the
// DOM walker with its root node. Later operations address these handles
// directly.
func (c *Client) attach(ctx context.Context, cn *conn) error {
	raw, err := c.callOn(ctx, cn, cn.actors.root, "listTabs", nil)
	if err != nil {
		return err
	}

	var tabs struct {
		Tabs     []tabEntry `json:"tabs"`
		Selected int        `json:"selected"`
	}
	if err := json.Unmarshal(raw, &tabs); err != nil {
		return fmt.Errorf("decoding listTabs reply: %w", err)
	}
	if len(tabs.Tabs) == 0 {
		return fmt.Errorf("browser reported no debuggable tabs")
	}

	tab := tabs.Tabs[0]
	if tabs.Selected >= 0 && tabs.Selected < len(tabs.Tabs) {
		tab = tabs.Tabs[tabs.Selected]
	} else {
		for _, t := range tabs.Tabs {
			if t.Selected {
				tab = t
				break
			}
		}
	}
	if tab.Actor == "" {
		return fmt.Errorf("selected tab has no actor handle")
	}

	cn.actorMu.Lock()
	cn.actors.tab = tab.Actor
	cn.actors.console = tab.ConsoleActor
	cn.actors.inspector = tab.InspectorActor
	cn.curURL = tab.URL
	cn.actorMu.Unlock()

	if tab.InspectorActor != "" {
		if err := c.attachWalker(ctx, cn, tab.InspectorActor); err != nil {
			return err
		}
	}
	return nil
}

// attachWalker completes the chain: inspector -> walker -> root node.
func (c *Client) attachWalker(ctx context.Context, cn *conn, inspector string) error {
	raw, err := c.callOn(ctx, cn, inspector, "getWalker", nil)
	if err != nil {
		return err
	}
	var walkerReply struct {
		Walker struct {
			Actor string `json:"actor"`
		} `json:"walker"`
	}
	if err := json.Unmarshal(raw, &walkerReply); err != nil {
		return fmt.Errorf("decoding getWalker reply: %w", err)
	}
	if walkerReply.Walker.Actor == "" {
		return fmt.Errorf("inspector returned no walker actor")
	}

	raw, err = c.callOn(ctx, cn, walkerReply.Walker.Actor, "getRootNode", nil)
	if err != nil {
		return err
	}
	var rootReply struct {
		Node struct {
			Actor string `json:"actor"`
		} `json:"node"`
	}
	if err := json.Unmarshal(raw, &rootReply); err != nil {
		return fmt.Errorf("decoding getRootNode reply: %w", err)
	}

	cn.actorMu.Lock()
	cn.actors.walker = walkerReply.Walker.Actor
	cn.actors.rootNode = rootReply.Node.Actor
	cn.actorMu.Unlock()
	return nil
}

// chain returns a copy of the current actor handles.
func (cn *conn) chain() actorChain {
	cn.actorMu.Lock()
	defer cn.actorMu.Unlock()
	return cn.actors
}
