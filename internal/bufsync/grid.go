package bufsync

import "github.com/ian-h-chamberlain/vscode-neovim/internal/nvim"

// Grid mapping is maintained from backend-pushed layout events, not created
// by the reconciler. The redraw handlers below are the only writers of the
// grid tables.

// onWinPos handles a win_pos event: (grid, win, start_row, start_col,
// width, height). Only the grid/window pairing matters here.
func (m *Manager) onWinPos(args []any) {
	if len(args) < 2 {
		m.logger.Warn("win_pos event with %d args", len(args))
		return
	}
	grid, ok := nvim.AsInt(args[0])
	if !ok {
		m.logger.Warn("win_pos event with non-integer grid: %v", args[0])
		return
	}
	win, ok := nvim.AsInt(args[1])
	if !ok {
		m.logger.Warn("win_pos event with non-integer window: %v", args[1])
		return
	}

	m.mu.Lock()
	m.maps.setGrid(nvim.GridID(grid), nvim.WindowID(win))
	m.mu.Unlock()
}

// onWinClose handles a win_close event: (grid).
func (m *Manager) onWinClose(args []any) {
	if len(args) < 1 {
		return
	}
	grid, ok := nvim.AsInt(args[0])
	if !ok {
		m.logger.Warn("win_close event with non-integer grid: %v", args[0])
		return
	}

	m.mu.Lock()
	m.maps.dropGrid(nvim.GridID(grid))
	m.mu.Unlock()
}
