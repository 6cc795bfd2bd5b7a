// Package services holds the error taxonomy shared by stage transforms
// and the gateway clients under services/.
package services
