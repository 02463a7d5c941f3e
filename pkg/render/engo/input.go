// pkg/render/engo/input.go
package engo

import (
	"strconv"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
)

// Button names registered with engo.Input
const (
	buttonTime     = "time"
	buttonShift    = "shift"
	buttonReverse  = "reverse"
	buttonFollow   = "follow"
	buttonZoomIn   = "zoomIn"
	buttonZoomOut  = "zoomOut"
	buttonHomeView = "homeView"
	buttonQuit     = "quit"
	recolorPrefix  = "recolor"
)

// recolorSlots is how many marbles have a recolor key
const recolorSlots = 4

// Controls is what the viewer's keys act on; *engine.World implements it.
type Controls interface {
	SpeedUp()
	SlowDown()
	ReverseTime()
	Recolor(i int) error
}

// Action is one thing a key press asks for
type Action int

const (
	ActionSpeedUp Action = iota
	ActionSlowDown
	ActionReverse
	ActionRecolor
	ActionFollowNext
	ActionZoomIn
	ActionZoomOut
	ActionHomeView
	ActionQuit
)

// Command is an action plus its argument (the marble slot for recolor)
type Command struct {
	Action Action
	Slot   int
}

// buttons reports key state by button name
type buttons interface {
	JustPressed(name string) bool
	Down(name string) bool
}

type engoButtons struct{}

func (engoButtons) JustPressed(name string) bool { return engo.Input.Button(name).JustPressed() }
func (engoButtons) Down(name string) bool        { return engo.Input.Button(name).Down() }

// readCommands turns this frame's key state into commands, in a fixed order.
// T is faster and t slower, matching the terminal keys.
func readCommands(b buttons) []Command {
	var cmds []Command
	if b.JustPressed(buttonTime) {
		if b.Down(buttonShift) {
			cmds = append(cmds, Command{Action: ActionSpeedUp})
		} else {
			cmds = append(cmds, Command{Action: ActionSlowDown})
		}
	}
	if b.JustPressed(buttonReverse) {
		cmds = append(cmds, Command{Action: ActionReverse})
	}
	for slot := 0; slot < recolorSlots; slot++ {
		if b.JustPressed(recolorButton(slot)) {
			cmds = append(cmds, Command{Action: ActionRecolor, Slot: slot})
		}
	}
	if b.JustPressed(buttonFollow) {
		cmds = append(cmds, Command{Action: ActionFollowNext})
	}
	if b.Down(buttonZoomIn) {
		cmds = append(cmds, Command{Action: ActionZoomIn})
	}
	if b.Down(buttonZoomOut) {
		cmds = append(cmds, Command{Action: ActionZoomOut})
	}
	if b.JustPressed(buttonHomeView) {
		cmds = append(cmds, Command{Action: ActionHomeView})
	}
	if b.JustPressed(buttonQuit) {
		cmds = append(cmds, Command{Action: ActionQuit})
	}
	return cmds
}

func recolorButton(slot int) string {
	return recolorPrefix + strconv.Itoa(slot+1)
}

// InputSystem applies key presses to the simulation and the camera
type InputSystem struct {
	controls Controls
	camera   *Camera
	buttons  buttons

	// follow cycles -1 (home view), 0, 1, ... over the marbles
	follow int
	quit   func()
	onErr  func(error)
}

// NewInputSystem creates an input system reading engo.Input
func NewInputSystem(controls Controls, camera *Camera) *InputSystem {
	return &InputSystem{
		controls: controls,
		camera:   camera,
		buttons:  engoButtons{},
		follow:   -1,
		quit:     engo.Exit,
		onErr:    func(error) {},
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Priority orders the system within the ecs world
func (is *InputSystem) Priority() int { return inputPriority }

// Update reads the keyboard and mouse wheel
func (is *InputSystem) Update(dt float32) {
	for _, cmd := range readCommands(is.buttons) {
		is.Apply(cmd)
	}
	if scroll := engo.Input.Mouse.ScrollY; scroll != 0 {
		is.camera.SetZoom(is.camera.Zoom() * (1 + float64(scroll)*0.1))
	}
}

// Apply carries out one command
func (is *InputSystem) Apply(cmd Command) {
	switch cmd.Action {
	case ActionSpeedUp:
		is.controls.SpeedUp()
	case ActionSlowDown:
		is.controls.SlowDown()
	case ActionReverse:
		is.controls.ReverseTime()
	case ActionRecolor:
		if err := is.controls.Recolor(cmd.Slot); err != nil {
			is.onErr(err)
		}
	case ActionFollowNext:
		is.follow++
	case ActionZoomIn:
		is.camera.SetZoom(is.camera.Zoom() * 1.02)
	case ActionZoomOut:
		is.camera.SetZoom(is.camera.Zoom() * 0.98)
	case ActionHomeView:
		is.follow = -1
		is.camera.ClearTarget()
		is.camera.ResetZoom()
	case ActionQuit:
		is.quit()
	}
}

// Following returns the marble slot the camera should follow given how many
// marbles exist, or -1 for the home view.
func (is *InputSystem) Following(marbles int) int {
	if is.follow < 0 {
		return -1
	}
	if is.follow >= marbles {
		is.follow = -1
		is.camera.ClearTarget()
		return -1
	}
	return is.follow
}

// SetupInputBindings registers the viewer's keys
func SetupInputBindings() {
	engo.Input.RegisterButton(buttonTime, engo.KeyT)
	engo.Input.RegisterButton(buttonShift, engo.KeyLeftShift, engo.KeyRightShift)
	engo.Input.RegisterButton(buttonReverse, engo.KeyR)
	engo.Input.RegisterButton(buttonFollow, engo.KeyF)
	engo.Input.RegisterButton(buttonZoomIn, engo.KeyArrowUp)
	engo.Input.RegisterButton(buttonZoomOut, engo.KeyArrowDown)
	engo.Input.RegisterButton(buttonHomeView, engo.KeyH)
	engo.Input.RegisterButton(buttonQuit, engo.KeyEscape, engo.KeyQ)

	slotKeys := [recolorSlots]engo.Key{engo.KeyOne, engo.KeyTwo, engo.KeyThree, engo.KeyFour}
	for slot, key := range slotKeys {
		engo.Input.RegisterButton(recolorButton(slot), key)
	}
}
