package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/jypelle/vekipad/internal/tool"
	"github.com/jypelle/vekipad/internal/version"
	"github.com/sirupsen/logrus"
)

// ApiStatusProvider gives read access to the pads and the playback, outside the event loop
type ApiStatusProvider interface {
	Pads() []apimodel.Pad
	Pad(padId apimodel.PadId) (apimodel.Pad, bool)
	Playback() apimodel.Playback
	DisplayOn() bool
	// Screen is the last image sent to the display, nil before the first one
	Screen() image.Image
}

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	apiParam config.ApiParam
	certDir  string
	status   ApiStatusProvider
}

func NewApi(apiParam config.ApiParam, certDir string, status ApiStatusProvider) *Api {
	api := Api{
		apiParam:     apiParam,
		certDir:      certDir,
		status:       status,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						GlobalErrorAction(w, fmt.Sprintf("%v", rec), http.StatusInternalServerError)
					}
				}()

				if r.Header.Get("x-api-key") != apiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s %s", r.Method, r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/pads",
		func(w http.ResponseWriter, r *http.Request) {
			sendJson(w, api.status.Pads())
		}).Methods("GET")

	api.apiRouter.HandleFunc("/pads/{pad_id}",
		func(w http.ResponseWriter, r *http.Request) {
			padId, ok := api.padId(w, r)
			if !ok {
				return
			}
			api.sendPad(w, padId)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/pads/{pad_id}/binding",
		func(w http.ResponseWriter, r *http.Request) {
			padId, ok := api.padId(w, r)
			if !ok {
				return
			}
			var binding apimodel.PadBinding
			if err := json.NewDecoder(r.Body).Decode(&binding); err != nil || binding.Path == "" {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			if err := api.send(event.ApiEventPadBindData{PadId: padId, Path: binding.Path}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				return
			}
			api.sendPad(w, padId)
		}).Methods("PUT")

	api.apiRouter.HandleFunc("/pads/{pad_id}/activate",
		func(w http.ResponseWriter, r *http.Request) {
			padId, ok := api.padId(w, r)
			if !ok {
				return
			}
			if err := api.send(event.ApiEventPadActivateData{PadId: padId}); err != nil {
				var openErr *OpenError
				if errors.As(err, &openErr) {
					GlobalErrorAction(w, openErr.Reason()+": "+openErr.Locator, http.StatusConflict)
				} else {
					GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}
			api.sendPad(w, padId)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/playback",
		func(w http.ResponseWriter, r *http.Request) {
			sendJson(w, api.status.Playback())
		}).Methods("GET")

	api.apiRouter.HandleFunc("/playback/stop",
		func(w http.ResponseWriter, r *http.Request) {
			if err := api.send(event.ApiEventPlaybackStopData{}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				return
			}
			sendJson(w, api.status.Playback())
		}).Methods("POST")

	api.apiRouter.HandleFunc("/audio/volume/{volume}",
		func(w http.ResponseWriter, r *http.Request) {
			volume, err := strconv.ParseInt(mux.Vars(r)["volume"], 10, 0)
			if err != nil || volume < 0 || volume > 100 {
				apimodel.WrongParametersErrorMessage.SendError(w)
				return
			}
			if err := api.send(event.ApiEventAudioVolumeData{Volume: float64(volume) / 100}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				return
			}
			sendJson(w, api.status.Playback())
		}).Methods("POST")

	api.apiRouter.HandleFunc("/command/{command}",
		func(w http.ResponseWriter, r *http.Request) {
			command, ok := event.ParseCommand(mux.Vars(r)["command"])
			if !ok {
				ErrorStatusAction(w, r, http.StatusNotFound)
				return
			}
			if err := api.send(event.ApiEventCommandData{Command: command}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				return
			}
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display",
		func(w http.ResponseWriter, r *http.Request) {
			sendJson(w, apimodel.Display{On: api.status.DisplayOn()})
		}).Methods("GET")

	api.apiRouter.HandleFunc("/display/switch",
		func(w http.ResponseWriter, r *http.Request) {
			if err := api.send(event.ApiEventDisplaySwitchData{}); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
				return
			}
			sendJson(w, apimodel.Display{On: api.status.DisplayOn()})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/screen.png",
		func(w http.ResponseWriter, r *http.Request) {
			screen := api.status.Screen()
			if screen == nil {
				ErrorStatusAction(w, r, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			if err := png.Encode(w, screen); err != nil {
				logrus.Warnf("Unable to send screen: %v", err)
			}
		}).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Api-Key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(apiParam.SslPort, 10),
		Handler:      api.Handler(headersOk, originsOk, methodsOk),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

// Handler is the api router wrapped with compression and the given CORS options
func (d *Api) Handler(corsOptions ...handlers.CORSOption) http.Handler {
	return handlers.CompressHandler(handlers.CORS(corsOptions...)(d.router))
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			version.AppName+" server",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

// send forwards a request to the event loop and waits for its result
func (d *Api) send(data interface{}) error {
	result := make(chan error)
	d.eventChannel <- event.ApiEvent{Result: result, Data: data}
	return <-result
}

func (d *Api) padId(w http.ResponseWriter, r *http.Request) (apimodel.PadId, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["pad_id"], 10, 64)
	if err != nil {
		apimodel.WrongParametersErrorMessage.SendError(w)
		return 0, false
	}
	if _, ok := d.status.Pad(apimodel.PadId(id)); !ok {
		apimodel.UnknownPadErrorMessage.SendError(w)
		return 0, false
	}
	return apimodel.PadId(id), true
}

func (d *Api) sendPad(w http.ResponseWriter, padId apimodel.PadId) {
	pad, ok := d.status.Pad(padId)
	if !ok {
		apimodel.UnknownPadErrorMessage.SendError(w)
		return
	}
	sendJson(w, pad)
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.certDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.certDir, "cert.pem")
}

func sendJson(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	GlobalErrorAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	apimodel.NewErrorMessage(status, message).SendError(w)
}
