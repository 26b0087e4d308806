// Package services implements the driving port interfaces.
// Services contain the pipeline logic and orchestrate calls to
// driven ports (adapters); they never import adapters directly.
package services
