package parallel

// Group is one work group: the half-open texel rectangle [X0,X1)×[Y0,Y1)
// together with its index in the dispatch grid.
type Group struct {
	IX, IY int
	X0, Y0 int
	X1, Y1 int
}

// Grid is a 2D dispatch over a Width×Height texel domain in groups of
// GroupWidth×GroupHeight texels. Edge groups are clipped to the domain, so
// the domain need not be a multiple of the group size.
type Grid struct {
	Width, Height           int
	GroupWidth, GroupHeight int
}

// Groups returns the number of groups along each axis.
func (g Grid) Groups() (nx, ny int) {
	if g.Width <= 0 || g.Height <= 0 || g.GroupWidth <= 0 || g.GroupHeight <= 0 {
		return 0, 0
	}
	return (g.Width + g.GroupWidth - 1) / g.GroupWidth, (g.Height + g.GroupHeight - 1) / g.GroupHeight
}

// Split lists every group of the grid in row-major order.
func (g Grid) Split() []Group {
	nx, ny := g.Groups()
	groups := make([]Group, 0, nx*ny)
	for iy := range ny {
		for ix := range nx {
			x0, y0 := ix*g.GroupWidth, iy*g.GroupHeight
			groups = append(groups, Group{
				IX: ix, IY: iy,
				X0: x0, Y0: y0,
				X1: min(x0+g.GroupWidth, g.Width),
				Y1: min(y0+g.GroupHeight, g.Height),
			})
		}
	}
	return groups
}

// Dispatch runs fn once per group and returns when all groups are done.
// With a nil or closed pool the groups run sequentially on the caller.
func (g Grid) Dispatch(p *WorkerPool, fn func(Group)) {
	groups := g.Split()
	if len(groups) == 0 {
		return
	}
	if p == nil || !p.IsRunning() || len(groups) == 1 {
		for _, grp := range groups {
			fn(grp)
		}
		return
	}
	p.run(groups, fn)
}
