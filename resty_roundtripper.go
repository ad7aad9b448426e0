package logrelay

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

// RestyRoundTripper lets clients that expect an *http.Client, like the long-poll client, send through resty
type RestyRoundTripper struct {
	restyClient *resty.Client
}

func (r *RestyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	restyReq := r.restyClient.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true)

	for key, values := range req.Header {
		for _, value := range values {
			restyReq.Header.Add(key, value)
		}
	}
	if req.Body != nil {
		restyReq.SetBody(req.Body)
	}

	resp, err := restyReq.Execute(req.Method, req.URL.String())
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        resp.Status(),
		StatusCode:    resp.StatusCode(),
		Proto:         resp.RawResponse.Proto,
		ProtoMajor:    resp.RawResponse.ProtoMajor,
		ProtoMinor:    resp.RawResponse.ProtoMinor,
		Header:        resp.Header(),
		Body:          resp.RawBody(),
		ContentLength: resp.RawResponse.ContentLength,
		Request:       req,
	}, nil
}
