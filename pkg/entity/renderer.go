package entity

// Renderer handles rendering scene entities
type Renderer interface {
	RenderMarble(marble *Marble)
	RenderPlatform(platform *Platform)
	Clear()
	Present()
}
